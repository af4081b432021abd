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

//go:build !windows
// +build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareProcess places the process in its own process group, so the whole
// tree spawned by it can be signalled at once.
func prepareProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

// signalGroup signals the entire process group.
// The kill syscall interprets a negated PID N as the process group N belongs to.
func signalGroup(cmd *exec.Cmd, signal unix.Signal) error {
	err := unix.Kill(-cmd.Process.Pid, signal)
	if err == unix.ESRCH {
		// Already gone.
		return nil
	}
	return err
}

func exitCodeOf(state *os.ProcessState) int {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -int(status.Signal())
	}
	return state.ExitCode()
}
