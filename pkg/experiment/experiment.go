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

package experiment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/intelsdi-x/rig/pkg/resource"
	"github.com/intelsdi-x/rig/pkg/utils/errcollection"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// ProbePolicy decides whether failed probe command aborts the experiment.
type ProbePolicy int

const (
	// ProbeInformational probes are logged and never abort.
	ProbeInformational ProbePolicy = iota
	// ProbeFatal probes abort the experiment when they cannot be delivered or fail.
	ProbeFatal
)

func (p ProbePolicy) String() string {
	if p == ProbeFatal {
		return "fatal"
	}
	return "informational"
}

// Metrics observes an experiment run.
type Metrics interface {
	resource.Observer
	apps.StateObserver
	ObserveExperimentState(state string)
	ObserveAuxiliaryFailure(task string)
	ObserveCommand(runner, status string, duration time.Duration)
}

// Config contains everything an experiment owns for a single run.
type Config struct {
	// Monitor is the preflight gate. No constraints when nil.
	Monitor *resource.Monitor
	// Runner executes Probes. Required when Probes are given.
	Runner command.Runner
	// Probes are run once after preflight to check the remote endpoint.
	Probes      []command.Command
	ProbePolicy ProbePolicy
	// ProbeOutput receives stdout of probes. Standard output when nil.
	ProbeOutput io.Writer

	Applications []apps.Application
	Auxiliary    []AuxiliaryTask
	// Closers are closed when the run ends, e.g. RPC clients.
	Closers []io.Closer
	// Registry, when given, is used to stop every process started through its executor.
	Registry *executor.Registry

	// Clock delays auxiliary tasks. Real clock when nil.
	Clock   clock.Clock
	Metrics Metrics
}

// Experiment runs applications of a single session.
type Experiment struct {
	config Config

	mutex sync.Mutex
	state State
	ran   bool
}

// New returns Idle experiment.
func New(config Config) *Experiment {
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.ProbeOutput == nil {
		config.ProbeOutput = os.Stdout
	}
	if config.Metrics != nil {
		for _, app := range config.Applications {
			if observable, ok := app.(interface {
				SetObserver(apps.StateObserver)
			}); ok {
				observable.SetObserver(config.Metrics)
			}
		}
		if config.Monitor != nil {
			config.Monitor.WithObserver(config.Metrics)
		}
	}
	return &Experiment{config: config, state: Idle}
}

// State returns current state. It is safe to call it concurrently with Run.
func (e *Experiment) State() State {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.state
}

func (e *Experiment) setState(state State) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	logrus.Debugf("Experiment: %s -> %s", e.state, state)
	e.state = state
	if e.config.Metrics != nil {
		e.config.Metrics.ObserveExperimentState(state.String())
	}
}

// Run performs the experiment: preflight check, probes, validation of
// applications and concurrent run of applications with auxiliary tasks.
// Failure of any application aborts the whole run and stops the other ones;
// failures of auxiliary tasks are logged only.
// Processes are stopped and closers are closed on every path, before the final
// state is set. Failed cleanup aborts otherwise successful run.
// Experiment can be run only once.
func (e *Experiment) Run(ctx context.Context) error {
	e.mutex.Lock()
	if e.ran {
		e.mutex.Unlock()
		return errors.New("experiment can be run only once")
	}
	e.ran = true
	e.mutex.Unlock()

	err := e.run(ctx)

	if cleanupErr := e.cleanup(); cleanupErr != nil {
		logrus.Errorf("Experiment cleanup failed: %v", cleanupErr)
		if err == nil {
			err = errors.Wrap(cleanupErr, "experiment cleanup failed")
		}
	}

	if err != nil {
		e.setState(Aborted)
		return err
	}
	e.setState(Succeeded)
	return nil
}

func (e *Experiment) run(ctx context.Context) error {
	if e.config.Monitor != nil {
		if err := e.config.Monitor.Run(); err != nil {
			return err
		}
	}
	e.setState(PreflightChecked)

	if err := e.probe(ctx); err != nil {
		return err
	}

	for _, app := range e.config.Applications {
		if err := app.Validate(); err != nil {
			return err
		}
	}

	e.setState(Running)
	if err := e.runTasks(ctx); err != nil {
		logrus.Errorf("Experiment aborted: %v", err)
		return err
	}
	return nil
}

func (e *Experiment) probe(ctx context.Context) error {
	if len(e.config.Probes) > 0 && e.config.Runner == nil {
		return errors.New("probes given without runner")
	}

	for _, probe := range e.config.Probes {
		start := time.Now()
		result, err := command.Execute(ctx, probe, e.config.Runner)
		if e.config.Metrics != nil {
			status := result.Status
			if err != nil {
				status = "Error"
			}
			e.config.Metrics.ObserveCommand(e.config.Runner.Name(), status, time.Since(start))
		}

		if err == nil {
			err = result.Err(probe)
			fmt.Fprint(e.config.ProbeOutput, result.Stdout)
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.config.ProbePolicy == ProbeFatal {
			return errors.Wrapf(err, "probe %q failed", probe)
		}
		logrus.Warnf("Probe %q failed, continuing: %v", probe, err)
	}
	return nil
}

func (e *Experiment) runTasks(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, app := range e.config.Applications {
		app := app
		group.Go(func() error {
			if err := app.Run(groupCtx); err != nil {
				return errors.Wrapf(err, "application %s", app.Name())
			}
			return nil
		})
	}

	for _, auxiliary := range e.config.Auxiliary {
		auxiliary := auxiliary
		task := Delayed(e.config.Clock, auxiliary.Delay, auxiliary.Run)
		group.Go(func() error {
			return Contained(auxiliary.Name, task, func(error) {
				if e.config.Metrics != nil {
					e.config.Metrics.ObserveAuxiliaryFailure(auxiliary.Name)
				}
			})(groupCtx)
		})
	}

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		// External cancellation takes precedence over errors it caused.
		return errors.Wrap(ctx.Err(), "experiment cancelled")
	}
	return err
}

// cleanup stops every application and process and closes every closer.
func (e *Experiment) cleanup() error {
	var errorCollection errcollection.ErrorCollection

	for i := len(e.config.Applications) - 1; i >= 0; i-- {
		errorCollection.Add(e.config.Applications[i].Stop())
	}
	if e.config.Registry != nil {
		errorCollection.Add(e.config.Registry.StopAll())
	}
	for i := len(e.config.Closers) - 1; i >= 0; i-- {
		errorCollection.Add(e.config.Closers[i].Close())
	}

	return errorCollection.GetErrIfAny()
}

// WriteSummary renders table of the experiment and its applications with their final states.
func (e *Experiment) WriteSummary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Kind", "State"})
	table.Append([]string{"experiment", "", e.State().String()})
	for _, app := range e.config.Applications {
		table.Append([]string{app.Name(), app.Kind().String(), app.State().String()})
	}
	table.Render()
}

// Summary returns the table written by WriteSummary.
func (e *Experiment) Summary() string {
	buffer := &bytes.Buffer{}
	e.WriteSummary(buffer)
	return buffer.String()
}
