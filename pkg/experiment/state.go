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

// State is a state of an experiment run.
type State int

const (
	// Idle experiment was not run yet.
	Idle State = iota
	// PreflightChecked experiment passed resource constraints.
	PreflightChecked
	// Running experiment has its applications started.
	Running
	// Succeeded experiment had every application completed normally.
	Succeeded
	// Aborted experiment failed preflight, validation or one of its applications.
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case PreflightChecked:
		return "PreflightChecked"
	case Running:
		return "Running"
	case Succeeded:
		return "Succeeded"
	case Aborted:
		return "Aborted"
	}
	return "Unknown"
}
