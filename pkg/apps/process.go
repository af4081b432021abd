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

package apps

import (
	"context"
	"sync"

	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Run when process was stopped by Stop.
var ErrStopped = errors.New("stopped")

// StateObserver is notified about every state transition.
type StateObserver interface {
	ObserveApplicationState(application, state string)
}

// ProcessConfig describes process of an application.
type ProcessConfig struct {
	Name    string
	Kind    Kind
	Command command.Command
	// Validate checks files of application; Path in returned ValidationError is filled by it.
	Validate func() error
	// SkipValidation treats files as known-good.
	SkipValidation bool
}

// Process implements shared lifecycle of applications.
// Process handle is owned exclusively by Process.
type Process struct {
	config ProcessConfig
	exec   executor.Executor

	mutex    sync.Mutex
	state    State
	handle   executor.TaskHandle
	stopped  bool
	observer StateObserver
}

// NewProcess returns Process in Created state.
func NewProcess(exec executor.Executor, config ProcessConfig) *Process {
	return &Process{
		config: config,
		exec:   exec,
		state:  Created,
	}
}

// SetObserver attaches observer of state transitions.
func (p *Process) SetObserver(observer StateObserver) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.observer = observer
}

// Name returns human readable name of application.
func (p *Process) Name() string {
	return p.config.Name
}

// Kind returns variant of application.
func (p *Process) Kind() Kind {
	return p.config.Kind
}

// Command describes how the application is launched.
func (p *Process) Command() command.Command {
	return p.config.Command
}

// State returns current lifecycle state.
func (p *Process) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

// setState must be called with mutex held.
func (p *Process) setState(state State) {
	logrus.Debugf("%s: %s -> %s", p.config.Name, p.state, state)
	p.state = state
	if p.observer != nil {
		p.observer.ObserveApplicationState(p.config.Name, state.String())
	}
}

// Validate moves Created process to Validated. Failed validation leaves it Created,
// so calling Validate again yields the same outcome.
func (p *Process) Validate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.validate()
}

func (p *Process) validate() error {
	switch p.state {
	case Created:
	case Validated:
		return nil
	default:
		return errors.Errorf("cannot validate %s in state %s", p.config.Name, p.state)
	}

	if p.config.SkipValidation {
		logrus.Debugf("%s: validation skipped", p.config.Name)
		p.setState(Validated)
		return nil
	}

	if p.config.Command.IsZero() {
		return &ValidationError{Application: p.config.Name, Err: errors.New("no command to run")}
	}
	if p.config.Validate != nil {
		if err := p.config.Validate(); err != nil {
			if validationError, ok := err.(*ValidationError); ok {
				validationError.Application = p.config.Name
				return validationError
			}
			return &ValidationError{Application: p.config.Name, Err: err}
		}
	}

	p.setState(Validated)
	return nil
}

// Run spawns the process and waits for it. Created process is validated first.
// Clean exit moves process to Completed; spawn error, nonzero exit, Stop or
// cancellation of ctx move it to Failed.
func (p *Process) Run(ctx context.Context) error {
	handle, err := p.start(ctx)
	if err != nil {
		return err
	}

	select {
	case <-executor.GetWaitChannel(handle):
	case <-ctx.Done():
		logrus.Debugf("%s: cancelled, stopping", p.config.Name)
		if err := handle.Stop(); err != nil {
			logrus.Errorf("%s: could not stop: %v", p.config.Name, err)
		}
		handle.Wait(0)
		p.finish(Failed)
		return ctx.Err()
	}

	exitCode, err := handle.ExitCode()
	if err != nil {
		p.finish(Failed)
		return errors.Wrapf(err, "cannot get exit code of %s", p.config.Name)
	}

	if p.isStopped() {
		p.finish(Failed)
		return errors.Wrapf(ErrStopped, "%s", p.config.Name)
	}

	if exitCode != 0 {
		executor.LogUnsuccessfulExecution(p.config.Command.String(), p.exec.Name(), handle)
		p.finish(Failed)
		return &ExitError{Application: p.config.Name, ExitCode: exitCode}
	}

	executor.LogSuccessfulExecution(p.config.Command.String(), p.exec.Name(), handle)
	p.finish(Completed)
	return nil
}

func (p *Process) start(ctx context.Context) (executor.TaskHandle, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.state != Validated {
		return nil, errors.Errorf("cannot run %s in state %s", p.config.Name, p.state)
	}
	if p.stopped {
		p.setState(Failed)
		return nil, errors.Wrapf(ErrStopped, "%s was stopped before start", p.config.Name)
	}
	if err := ctx.Err(); err != nil {
		p.setState(Failed)
		return nil, err
	}

	cmd := p.config.Command
	handle, err := p.exec.Execute(cmd.Name(), cmd.Args()...)
	if err != nil {
		p.setState(Failed)
		return nil, errors.Wrapf(err, "cannot start %s", p.config.Name)
	}

	logrus.Infof("%s started: %s", p.config.Name, cmd)
	p.handle = handle
	p.setState(Running)
	return handle, nil
}

func (p *Process) finish(state State) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if err := p.handle.Clean(); err != nil {
		logrus.Debugf("%s: cleaning failed: %v", p.config.Name, err)
	}
	p.setState(state)
}

func (p *Process) isStopped() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.stopped
}

// Stop terminates running process. Process not started yet never starts.
func (p *Process) Stop() error {
	p.mutex.Lock()
	p.stopped = true
	handle := p.handle
	p.mutex.Unlock()

	if handle == nil {
		return nil
	}
	if err := handle.Stop(); err != nil {
		return errors.Wrapf(err, "cannot stop %s", p.config.Name)
	}
	return nil
}

// Live returns true while the process is running.
func (p *Process) Live() bool {
	p.mutex.Lock()
	handle := p.handle
	p.mutex.Unlock()
	return handle != nil && handle.Status() == executor.RUNNING
}
