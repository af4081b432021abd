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

package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/apps/bonsai"
	"github.com/intelsdi-x/rig/pkg/apps/openephys"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/intelsdi-x/rig/pkg/experiment"
	"github.com/intelsdi-x/rig/pkg/launcher"
	"github.com/intelsdi-x/rig/pkg/rpc"
)

const appName = "ephys-foraging"

var (
	acquisitionDelayFlag = conf.NewDurationFlag("acquisition_delay", "Time given to Bonsai to initialize before Open Ephys acquisition starts", 2*time.Second)
	remoteLaunchFlag     = conf.NewBoolFlag("openephys_remote_launch", "Send Open Ephys launch command to the remote endpoint before the run", false)
)

// foraging runs a Bonsai foraging task with Open Ephys recording next to it.
func foraging(ctx context.Context, env launcher.Environment) error {
	settings := env.Settings

	monitor, err := settings.Monitor()
	if err != nil {
		return err
	}

	rpcClient, err := rpc.Dial(settings.RPC)
	if err != nil {
		return err
	}

	registry := executor.NewRegistry()
	localConfig := executor.DefaultLocalConfig()
	localConfig.OutputDir = env.Session.Directory
	local := registry.Executor(executor.NewLocal(localConfig))

	openEphys := openephys.New(local, settings.OpenEphys)
	bonsaiApp := bonsai.New(local, settings.Bonsai)

	auxiliary := []experiment.AuxiliaryTask{
		experiment.StartAcquisitionAfter(acquisitionDelayFlag.Value(), openEphys),
	}
	if remoteLaunchFlag.Value() {
		auxiliary = append(auxiliary, remoteLaunch(rpcClient.WithTimeout(0), openEphys))
	}

	e := experiment.New(experiment.Config{
		Monitor:      monitor,
		Runner:       rpcClient,
		Probes:       settings.ProbeCommands(),
		ProbePolicy:  settings.ProbePolicy(),
		Applications: []apps.Application{openEphys, bonsaiApp},
		Auxiliary:    auxiliary,
		Closers:      []io.Closer{rpcClient},
		Registry:     registry,
		Metrics:      env.Metrics,
	})
	err = e.Run(ctx)
	e.WriteSummary(os.Stdout)
	return err
}

// remoteLaunch sends the launch command of app to the remote endpoint.
// Runner must not time out, the command lasts as long as the application.
func remoteLaunch(runner command.Runner, app apps.Application) experiment.AuxiliaryTask {
	return experiment.AuxiliaryTask{
		Name: "launch " + app.Name() + " remotely",
		Run: func(ctx context.Context) error {
			result, err := command.Execute(ctx, app.Command(), runner)
			if err != nil {
				return err
			}
			return result.Err(app.Command())
		},
	}
}

func main() {
	conf.SetAppName(appName)
	conf.SetHelp(`Runs a Bonsai foraging task together with Open Ephys acquisition.
Storage of the data directory is checked first and the remote endpoint is probed before applications start.
Any application failure stops the other one; failure to start acquisition is only logged.`)

	settings := launcher.Configure()
	os.Exit(launcher.New(appName, settings).RunExperiment(foraging))
}
