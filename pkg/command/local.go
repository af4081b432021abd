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

package command

import (
	"context"
	"io/ioutil"
	"os"

	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/pkg/errors"
)

// Local runs commands as local subprocesses through an executor.
type Local struct {
	executor executor.Executor
}

// NewLocal returns Local runner spawning processes with given executor.
func NewLocal(exec executor.Executor) *Local {
	return &Local{executor: exec}
}

// Name returns user-friendly name of runner.
func (l *Local) Name() string {
	return l.executor.Name()
}

// Run spawns the command and waits for its exit. When ctx is done first,
// the process is stopped and ctx error is returned.
func (l *Local) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.IsZero() {
		return Result{}, errors.New("cannot run empty command")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	handle, err := l.executor.Execute(cmd.Name(), cmd.Args()...)
	if err != nil {
		return Result{}, errors.Wrapf(err, "could not spawn %q", cmd)
	}
	defer handle.Clean()

	select {
	case <-executor.GetWaitChannel(handle):
	case <-ctx.Done():
		if err := handle.Stop(); err != nil {
			return Result{}, errors.Wrapf(err, "could not stop %q after %v", cmd, ctx.Err())
		}
		return Result{}, ctx.Err()
	}

	exitCode, err := handle.ExitCode()
	if err != nil {
		return Result{}, errors.Wrapf(err, "could not get exit code of %q", cmd)
	}

	stdout, err := readOutput(handle.StdoutFile)
	if err != nil {
		return Result{}, errors.Wrapf(err, "could not read stdout of %q", cmd)
	}
	stderr, err := readOutput(handle.StderrFile)
	if err != nil {
		return Result{}, errors.Wrapf(err, "could not read stderr of %q", cmd)
	}

	return Result{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Status:   StatusOK,
	}, nil
}

func readOutput(open func() (*os.File, error)) (string, error) {
	file, err := open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	output, err := ioutil.ReadAll(file)
	return string(output), err
}
