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
	"fmt"
	"strings"
)

// CommandError is a structured failure of a command which was executed (or refused
// by the endpoint) but did not succeed. It is not fatal by itself.
type CommandError struct {
	Command Command
	Result  Result
}

func (e *CommandError) Error() string {
	if e.Result.Status != StatusOK {
		return fmt.Sprintf("command %q failed with status %s: %s",
			e.Command, e.Result.Status, strings.TrimSpace(e.Result.Stderr))
	}
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.Result.ExitCode)
}

// TransportError is returned when the endpoint executing a command is unreachable.
type TransportError struct {
	Address string
	Command Command
	// Partial carries output captured before the transport failed, if any.
	Partial Result
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot deliver command %q to %s: %v", e.Command, e.Address, e.Err)
}

// Cause returns the underlying transport error.
func (e *TransportError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
