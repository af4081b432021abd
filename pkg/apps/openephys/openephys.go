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

package openephys

import (
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/executor"
)

const name = "OpenEphys"

var (
	executableFlag     = conf.NewStringFlag("openephys_executable", "Path to Open Ephys GUI executable", "./.open-ephys/open-ephys.exe")
	signalChainFlag    = conf.NewStringFlag("openephys_signal_chain", "Path to Open Ephys signal chain", "./src/example.xml")
	addressFlag        = conf.NewStringFlag("openephys_address", "Address of Open Ephys HTTP API", "localhost:37497")
	requestTimeoutFlag = conf.NewDurationFlag("openephys_request_timeout", "Timeout of Open Ephys HTTP API request", 5*time.Second)
	skipValidationFlag = conf.NewBoolFlag("openephys_skip_validation", "Do not validate Open Ephys executable and signal chain", false)
)

// Config is a config for Open Ephys GUI.
type Config struct {
	Executable     string        `yaml:"executable"`
	SignalChain    string        `yaml:"signal_chain"`
	ControlAddress string        `yaml:"control_address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SkipValidation bool          `yaml:"skip_validation"`
}

// DefaultConfig is a constructor for Config with default parameters.
func DefaultConfig() Config {
	return Config{
		Executable:     executableFlag.Value(),
		SignalChain:    signalChainFlag.Value(),
		ControlAddress: addressFlag.Value(),
		RequestTimeout: requestTimeoutFlag.Value(),
		SkipValidation: skipValidationFlag.Value(),
	}
}

// OpenEphys runs Open Ephys GUI with a signal chain and controls it over HTTP.
type OpenEphys struct {
	*apps.Process
	config Config
	client *Client
}

// New is a constructor for OpenEphys.
func New(exec executor.Executor, config Config) *OpenEphys {
	o := &OpenEphys{config: config}
	o.Process = apps.NewProcess(exec, apps.ProcessConfig{
		Name:           name,
		Kind:           apps.KindControlled,
		Command:        command.New(config.Executable, config.SignalChain),
		Validate:       o.validate,
		SkipValidation: config.SkipValidation,
	})
	o.client = NewClient(name, config.ControlAddress, config.RequestTimeout, o.ready)
	return o
}

// Controller returns control client of GUI.
func (o *OpenEphys) Controller() apps.Controller {
	return o.client
}

// Client returns control client with full GUI API.
func (o *OpenEphys) Client() *Client {
	return o.client
}

// ready rejects control commands until the process is running.
func (o *OpenEphys) ready() error {
	if state := o.State(); state != apps.Running {
		return &apps.NotReadyError{Application: name, State: state}
	}
	return nil
}

func (o *OpenEphys) validate() error {
	if err := apps.ValidateExecutable(o.config.Executable); err != nil {
		return &apps.ValidationError{Path: o.config.Executable, Err: err}
	}
	if err := apps.ValidateXMLFile(o.config.SignalChain); err != nil {
		return &apps.ValidationError{Path: o.config.SignalChain, Err: err}
	}
	return nil
}
