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

// Package resource implements the preflight gate: named constraints over live
// system state which all have to hold before any process of an experiment starts.
// Evaluation is advisory; it only reads system state and never reserves anything.
package resource

import (
	"fmt"
)

// Predicate checks target. It returns whether the constraint holds and a
// human readable description of what was observed. Error means the state
// could not be read, which is treated as unmet constraint.
type Predicate func(target string) (ok bool, observed string, err error)

// Constraint is a named predicate over a resource.
type Constraint struct {
	Name           string
	Target         string
	Predicate      Predicate
	FailureMessage string
}

// Evaluate checks the constraint and returns reason when it does not hold.
func (c Constraint) Evaluate() (ok bool, reason string) {
	if c.Predicate == nil {
		return false, "constraint has no predicate"
	}

	ok, observed, err := c.Predicate(c.Target)
	if err != nil {
		return false, fmt.Sprintf("cannot inspect %q: %v", c.Target, err)
	}
	if ok {
		return true, ""
	}

	switch {
	case c.FailureMessage == "":
		return false, observed
	case observed == "":
		return false, c.FailureMessage
	}
	return false, fmt.Sprintf("%s (%s)", c.FailureMessage, observed)
}
