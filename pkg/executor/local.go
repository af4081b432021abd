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

package executor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var stopGracePeriodFlag = conf.NewDurationFlag(
	"stop_grace_period",
	"Time given to a process after SIGTERM before it is killed",
	5*time.Second,
)

// LocalConfig contains configuration for Local executor.
type LocalConfig struct {
	// OutputDir is a parent for per task output directories. Working directory when empty.
	OutputDir string
	// WorkingDir is a directory spawned processes are started in. Inherited when empty.
	WorkingDir string
	// StopGracePeriod is the time between polite and forceful termination.
	StopGracePeriod time.Duration
}

// DefaultLocalConfig returns default configuration for Local executor.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		StopGracePeriod: stopGracePeriodFlag.Value(),
	}
}

// Local provisioning is responsible for providing the execution environment
// on local machine via exec.Command.
// It runs command as current user.
type Local struct {
	config LocalConfig
}

// NewLocal returns a Local instance.
func NewLocal(config LocalConfig) Local {
	return Local{config: config}
}

// NewLocalWithDefaults returns a Local instance with default configuration.
func NewLocalWithDefaults() Local {
	return NewLocal(DefaultLocalConfig())
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute runs the program given as input.
// Returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(name string, args ...string) (TaskHandle, error) {
	stdoutFile, stderrFile, err := createExecutorOutputFiles(l.config.OutputDir, name, "local")
	if err != nil {
		return nil, err
	}
	outputDir := filepath.Dir(stdoutFile.Name())

	command := strings.Join(append([]string{name}, args...), " ")
	logrus.Debugf("Starting %q locally", command)

	cmd := exec.Command(name, args...)
	cmd.Dir = l.config.WorkingDir
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile
	prepareProcess(cmd)

	if err := cmd.Start(); err != nil {
		stdoutFile.Close()
		stderrFile.Close()
		os.RemoveAll(outputDir)
		return nil, errors.Wrapf(err, "could not start %q", command)
	}

	logrus.Debugf("Started %q with pid %d, output in %q", command, cmd.Process.Pid, outputDir)

	handle := &localTaskHandle{
		command:        command,
		cmd:            cmd,
		stdoutFile:     stdoutFile,
		stderrFile:     stderrFile,
		outputDir:      outputDir,
		gracePeriod:    l.config.StopGracePeriod,
		waitEndChannel: make(chan struct{}),
	}

	// Wait for local task in goroutine.
	go handle.wait()

	return handle, nil
}

// localTaskHandle implements TaskHandle interface.
type localTaskHandle struct {
	command     string
	cmd         *exec.Cmd
	stdoutFile  *os.File
	stderrFile  *os.File
	outputDir   string
	gracePeriod time.Duration

	// Closed when process is reaped; exitCode is valid afterwards.
	waitEndChannel chan struct{}
	exitCode       int

	stopMutex sync.Mutex
}

func (h *localTaskHandle) wait() {
	// Error is not interesting here, the process state carries everything.
	h.cmd.Wait()
	h.exitCode = exitCodeOf(h.cmd.ProcessState)

	logrus.Debugf("Ended %q with output in %q and exit code %d", h.command, h.outputDir, h.exitCode)
	close(h.waitEndChannel)
}

func (h *localTaskHandle) isTerminated() bool {
	select {
	case <-h.waitEndChannel:
		return true
	default:
		return false
	}
}

// Stop terminates the local task. Process group gets SIGTERM first and
// SIGKILL when it is still alive after the grace period.
func (h *localTaskHandle) Stop() error {
	h.stopMutex.Lock()
	defer h.stopMutex.Unlock()

	if h.isTerminated() {
		return nil
	}

	logrus.Debugf("Terminating %q (pid %d)", h.command, h.cmd.Process.Pid)
	if err := terminateProcess(h.cmd); err != nil {
		return errors.Wrapf(err, "could not terminate %q", h.command)
	}
	if h.Wait(h.gracePeriod) {
		return nil
	}

	logrus.Warnf("%q did not terminate within %s, killing it", h.command, h.gracePeriod)
	if err := killProcess(h.cmd); err != nil {
		return errors.Wrapf(err, "could not kill %q", h.command)
	}
	h.Wait(0)
	return nil
}

// Status returns a state of the task.
func (h *localTaskHandle) Status() TaskState {
	if h.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns exit code of terminated task.
// Task killed by a signal reports negated signal number.
func (h *localTaskHandle) ExitCode() (int, error) {
	if !h.isTerminated() {
		return -1, errors.Errorf("task %q is not terminated", h.command)
	}
	return h.exitCode, nil
}

// StdoutFile returns a file handle for file to the task's stdout file.
func (h *localTaskHandle) StdoutFile() (*os.File, error) {
	return os.Open(h.stdoutFile.Name())
}

// StderrFile returns a file handle for file to the task's stderr file.
func (h *localTaskHandle) StderrFile() (*os.File, error) {
	return os.Open(h.stderrFile.Name())
}

// Wait blocks until process is terminated or timeout appeared.
// Returns true when process terminates before timeout, otherwise false.
func (h *localTaskHandle) Wait(timeout time.Duration) bool {
	if timeout == 0 {
		<-h.waitEndChannel
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.waitEndChannel:
		return true
	case <-timer.C:
		return false
	}
}

// Clean closes stdout and stderr files of the task.
func (h *localTaskHandle) Clean() error {
	var closeErrors []string
	if err := h.stdoutFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		closeErrors = append(closeErrors, err.Error())
	}
	if err := h.stderrFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		closeErrors = append(closeErrors, err.Error())
	}
	if len(closeErrors) > 0 {
		return errors.Errorf("cleaning %q failed: %s", h.command, strings.Join(closeErrors, "; "))
	}
	return nil
}

// EraseOutput removes directory with task's stdout & stderr files.
func (h *localTaskHandle) EraseOutput() error {
	if err := os.RemoveAll(h.outputDir); err != nil {
		return errors.Wrapf(err, "could not remove output of %q", h.command)
	}
	return nil
}

// Address returns address where task was located.
func (h *localTaskHandle) Address() string {
	return "127.0.0.1"
}

// String returns the started command line.
func (h *localTaskHandle) String() string {
	return h.command
}
