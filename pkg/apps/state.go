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

// State is a lifecycle state of an application.
type State int

const (
	// Created application holds configuration only.
	Created State = iota
	// Validated application has executable and configuration files confirmed.
	Validated
	// Running application has live process.
	Running
	// Completed application process exited with 0.
	Completed
	// Failed application could not be started or its process exited abnormally.
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Validated:
		return "Validated"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Terminal returns true for states application never leaves.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
