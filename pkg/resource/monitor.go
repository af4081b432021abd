// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resource

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Policy decides whether evaluation stops on first unmet constraint.
type Policy int

const (
	// EvaluateAll evaluates every constraint and reports all failures.
	EvaluateAll Policy = iota
	// FailFast stops on first unmet constraint.
	FailFast
)

func (p Policy) String() string {
	switch p {
	case EvaluateAll:
		return "evaluate-all"
	case FailFast:
		return "fail-fast"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Observer is notified about every evaluated constraint.
type Observer interface {
	ObserveConstraint(name string, satisfied bool)
}

// Failure describes one unmet constraint.
type Failure struct {
	Constraint string
	Target     string
	Reason     string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s on %q: %s", f.Constraint, f.Target, f.Reason)
}

// ResourceConstraintError carries every unmet constraint in evaluation order.
type ResourceConstraintError struct {
	Failures []Failure
}

func (e *ResourceConstraintError) Error() string {
	descriptions := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		descriptions = append(descriptions, failure.String())
	}
	return "resource constraints not met: " + strings.Join(descriptions, "; ")
}

// Monitor evaluates constraints in registration order.
type Monitor struct {
	constraints []Constraint
	policy      Policy
	observer    Observer
}

// NewMonitor returns Monitor with EvaluateAll policy.
func NewMonitor(constraints ...Constraint) *Monitor {
	return &Monitor{
		constraints: append([]Constraint{}, constraints...),
		policy:      EvaluateAll,
	}
}

// WithPolicy sets evaluation policy.
func (m *Monitor) WithPolicy(policy Policy) *Monitor {
	m.policy = policy
	return m
}

// WithObserver attaches observer of evaluated constraints.
func (m *Monitor) WithObserver(observer Observer) *Monitor {
	m.observer = observer
	return m
}

// Add registers constraint after already registered ones.
func (m *Monitor) Add(constraint Constraint) {
	m.constraints = append(m.constraints, constraint)
}

// Constraints returns registered constraints.
func (m *Monitor) Constraints() []Constraint {
	return append([]Constraint{}, m.constraints...)
}

// Run evaluates constraints and returns *ResourceConstraintError when any of them does not hold.
func (m *Monitor) Run() error {
	var failures []Failure
	for _, constraint := range m.constraints {
		ok, reason := constraint.Evaluate()
		if m.observer != nil {
			m.observer.ObserveConstraint(constraint.Name, ok)
		}

		if ok {
			logrus.Debugf("Constraint %s on %q holds", constraint.Name, constraint.Target)
			continue
		}

		logrus.Errorf("Constraint %s on %q not met: %s", constraint.Name, constraint.Target, reason)
		failures = append(failures, Failure{
			Constraint: constraint.Name,
			Target:     constraint.Target,
			Reason:     reason,
		})
		if m.policy == FailFast {
			break
		}
	}

	if len(failures) > 0 {
		return &ResourceConstraintError{Failures: failures}
	}
	return nil
}
