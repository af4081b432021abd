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
	"fmt"
)

// ValidationError is returned when executable or configuration file of an
// application is missing or malformed.
type ValidationError struct {
	Application string
	Path        string
	Err         error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation of %s failed for %q: %v", e.Application, e.Path, e.Err)
}

// Cause returns underlying validation error.
func (e *ValidationError) Cause() error {
	return e.Err
}

// Unwrap returns underlying validation error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotReadyError is returned when control command is issued to an application
// whose control endpoint is not live.
type NotReadyError struct {
	Application string
	State       State
	Err         error
}

func (e *NotReadyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not ready for control commands (state %s): %v", e.Application, e.State, e.Err)
	}
	return fmt.Sprintf("%s is not ready for control commands (state %s)", e.Application, e.State)
}

// Unwrap returns underlying error.
func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// ExitError is returned when application process exits with nonzero code.
type ExitError struct {
	Application string
	ExitCode    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Application, e.ExitCode)
}
