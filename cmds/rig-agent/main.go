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
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/intelsdi-x/rig/pkg/rpc"
	"github.com/intelsdi-x/rig/pkg/utils/errutil"
	"github.com/sirupsen/logrus"
)

var (
	listenFlag  = conf.NewStringFlag("listen", "Address to accept remote commands on", "0.0.0.0:5000")
	allowFlag   = conf.NewSliceFlag("allow", "Command allowed to be run. Every command is allowed when none given (--allow=ipconfig --allow=open-ephys.exe)")
	workDirFlag = conf.NewStringFlag("work_dir", "Working directory of run commands", "")
)

func main() {
	conf.SetAppName("rig-agent")
	conf.SetHelp("Runs commands sent by experiments on this machine and returns their output.")
	errutil.Check(conf.ParseFlags())
	logrus.SetLevel(conf.LogLevel())

	outputDir, err := os.MkdirTemp("", "rig-agent_")
	errutil.CheckWithContext(err, "cannot create output directory")
	defer os.RemoveAll(outputDir)

	localConfig := executor.DefaultLocalConfig()
	localConfig.OutputDir = outputDir
	localConfig.WorkingDir = workDirFlag.Value()
	server := rpc.NewServer(command.NewLocal(executor.NewLocal(localConfig)), allowFlag.Value()...)

	listener, err := net.Listen("tcp", listenFlag.Value())
	errutil.CheckWithContext(err, "cannot listen")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Accepting commands on %s", listener.Addr())
	if err := rpc.Serve(ctx, listener, server); err != nil {
		logrus.Errorf("Serving failed: %v", err)
	}
}
