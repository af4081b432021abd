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

package bonsai

import (
	"fmt"
	"sort"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/executor"
)

const name = "Bonsai"

var (
	executableFlag     = conf.NewStringFlag("bonsai_executable", "Path to Bonsai executable", "./bonsai/Bonsai.exe")
	workflowFlag       = conf.NewStringFlag("bonsai_workflow", "Path to Bonsai workflow", "./src/main.bonsai")
	editorFlag         = conf.NewBoolFlag("bonsai_editor", "Run Bonsai with editor visible", true)
	skipValidationFlag = conf.NewBoolFlag("bonsai_skip_validation", "Do not validate Bonsai executable and workflow", false)
)

// Config is a config for Bonsai workflow runner.
// Bonsai supported options:
// <workflow>       workflow file to open
// --start          start workflow immediately
// --no-editor      run without editor window (implies --start)
// -p:<Key>=<Value> set workflow property
type Config struct {
	Executable       string            `yaml:"executable"`
	Workflow         string            `yaml:"workflow"`
	Properties       map[string]string `yaml:"properties"`
	StartImmediately bool              `yaml:"start_immediately"`
	NoEditor         bool              `yaml:"no_editor"`
	SkipValidation   bool              `yaml:"skip_validation"`
}

// DefaultConfig is a constructor for Config with default parameters.
func DefaultConfig() Config {
	return Config{
		Executable:       executableFlag.Value(),
		Workflow:         workflowFlag.Value(),
		Properties:       map[string]string{},
		StartImmediately: true,
		NoEditor:         !editorFlag.Value(),
		SkipValidation:   skipValidationFlag.Value(),
	}
}

// Bonsai runs a workflow.
type Bonsai struct {
	*apps.Process
	config Config
}

// New is a constructor for Bonsai.
func New(exec executor.Executor, config Config) *Bonsai {
	b := &Bonsai{config: config}
	b.Process = apps.NewProcess(exec, apps.ProcessConfig{
		Name:           name,
		Kind:           apps.KindGeneric,
		Command:        buildCommand(config),
		Validate:       b.validate,
		SkipValidation: config.SkipValidation,
	})
	return b
}

func buildCommand(config Config) command.Command {
	args := []string{config.Workflow}
	if config.StartImmediately {
		args = append(args, "--start")
	}
	if config.NoEditor {
		args = append(args, "--no-editor")
	}

	keys := make([]string, 0, len(config.Properties))
	for key := range config.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, fmt.Sprintf("-p:%s=%s", key, config.Properties[key]))
	}

	return command.New(config.Executable, args...)
}

func (b *Bonsai) validate() error {
	if err := apps.ValidateExecutable(b.config.Executable); err != nil {
		return &apps.ValidationError{Path: b.config.Executable, Err: err}
	}
	if err := apps.ValidateXMLFile(b.config.Workflow); err != nil {
		return &apps.ValidationError{Path: b.config.Workflow, Err: err}
	}
	return nil
}
