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

// StatusOK is Result status of every command which was delivered and executed,
// no matter what its exit code was.
const StatusOK = "OK"

// Result is an outcome of executed Command. It has the same shape for local
// and remote execution.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	// Status is StatusOK or name of remote status code when the endpoint refused to execute command.
	Status string `json:"status"`
}

// Succeeded returns true when command was executed and exited with 0.
func (r Result) Succeeded() bool {
	return r.Status == StatusOK && r.ExitCode == 0
}

// Err returns *CommandError describing failed result or nil.
func (r Result) Err(cmd Command) error {
	if r.Succeeded() {
		return nil
	}
	return &CommandError{Command: cmd, Result: r}
}
