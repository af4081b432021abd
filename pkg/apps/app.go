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

// Package apps wraps external applications run by an experiment. Every
// application shares the Process lifecycle (Created, Validated, Running,
// then Completed or Failed); some of them additionally expose a Controller
// used to issue commands while the process runs.
package apps

import (
	"context"

	"github.com/intelsdi-x/rig/pkg/command"
)

// Kind is a closed set of application variants.
type Kind int

const (
	// KindGeneric application is only spawned and awaited.
	KindGeneric Kind = iota
	// KindControlled application exposes a Controller while running.
	KindControlled
)

func (k Kind) String() string {
	if k == KindControlled {
		return "controlled"
	}
	return "generic"
}

// Application is an external process owned by exactly one experiment.
type Application interface {
	// Name returns human readable name of application.
	Name() string
	// Kind returns variant of application.
	Kind() Kind
	// Validate confirms executable and configuration files. It does not modify them.
	Validate() error
	// Run spawns the process and blocks until it exits or ctx is done.
	Run(ctx context.Context) error
	// Stop terminates the process if it is running. It is safe to call many times.
	Stop() error
	// State returns current lifecycle state.
	State() State
	// Command describes how the application is launched, so it can be dispatched by any runner.
	Command() command.Command
}

// Controller is a synchronous control channel to a running application.
type Controller interface {
	// StartAcquisition makes application acquire data.
	StartAcquisition(ctx context.Context) error
	// StopAcquisition makes application idle.
	StopAcquisition(ctx context.Context) error
}

// Controllable is implemented by applications of KindControlled.
type Controllable interface {
	Application
	Controller() Controller
}

// ControllerOf returns controller of application or nil for generic ones.
func ControllerOf(app Application) Controller {
	if controllable, ok := app.(Controllable); ok && app.Kind() == KindControlled {
		return controllable.Controller()
	}
	return nil
}
