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

// Package launcher is the entry point of experiments: it owns the settings of
// a run, prepares its session and maps the outcome to the process exit code.
package launcher

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/experiment"
	"github.com/intelsdi-x/rig/pkg/experiment/logger"
	"github.com/intelsdi-x/rig/pkg/metrics"
	"github.com/intelsdi-x/rig/pkg/resource"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Exit codes of experiment binaries, following sysexits.h where one fits.
const (
	ExOK          = 0
	ExFailure     = 1
	ExUsage       = 64
	ExUnavailable = 69
	ExConfig      = 78
	ExCancelled   = 130
)

// Environment is given to routine by launcher.
type Environment struct {
	Settings Settings
	Session  experiment.Session
	// Metrics is never nil.
	Metrics *metrics.Collector
}

// Routine is the experiment run by launcher exactly once.
type Routine func(ctx context.Context, env Environment) error

// Launcher runs an experiment routine in a fresh session.
type Launcher struct {
	name     string
	settings Settings
	signals  []os.Signal
}

// New returns launcher of experiment called name.
func New(name string, settings Settings) *Launcher {
	return &Launcher{
		name:     name,
		settings: settings,
		signals:  []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// RunExperiment runs routine and returns exit code of its outcome.
// SIGINT and SIGTERM cancel the context given to routine.
// Data directory must exist; it is checked before anything is written.
func (l *Launcher) RunExperiment(routine Routine) int {
	if err := resource.NewMonitor(resource.PathExistsConstraint(l.settings.DataDir)).Run(); err != nil {
		logrus.Errorf("Cannot start experiment %s: %v", l.name, err)
		return ExitCode(err)
	}

	session := experiment.NewSession(l.name, l.settings.DataDir)
	logFile, err := logger.Initialize(l.name, session)
	if err != nil {
		logrus.Errorf("Cannot initialize session: %v", err)
		return ExFailure
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), l.signals...)
	defer stop()

	collector := metrics.NewCollector()
	if l.settings.MetricsAddress != "" {
		listener, err := net.Listen("tcp", l.settings.MetricsAddress)
		if err != nil {
			logrus.Errorf("Cannot serve metrics: %v", err)
			return ExFailure
		}
		metricsCtx, cancelMetrics := context.WithCancel(context.Background())
		defer cancelMetrics()
		go func() {
			if err := metrics.Serve(metricsCtx, listener, collector); err != nil {
				logrus.Errorf("%v", err)
			}
		}()
	}

	var metadata *experiment.Metadata
	if l.settings.Cassandra.Enabled() {
		metadata = experiment.NewMetadata(session.ID, l.settings.Cassandra)
		if err := recordSession(metadata); err != nil {
			logrus.Errorf("Cannot record session metadata: %v", err)
			return ExFailure
		}
		defer metadata.Close()
	}

	err = routine(ctx, Environment{Settings: l.settings, Session: session, Metrics: collector})
	exitCode := ExitCode(err)

	state := experiment.Succeeded
	if err != nil {
		state = experiment.Aborted
		logrus.Errorf("Experiment %s failed: %v", l.name, err)
	} else {
		logrus.Infof("Experiment %s succeeded", l.name)
	}

	if metadata != nil {
		if err := metadata.RecordOutcome(state, exitCode, err); err != nil {
			logrus.Errorf("Cannot record outcome: %v", err)
		}
	}
	logrus.Infof("Session %s finished with exit code %d", session.ID, exitCode)
	return exitCode
}

func recordSession(metadata *experiment.Metadata) error {
	if err := metadata.Connect(); err != nil {
		return err
	}
	if err := metadata.RecordFlags(); err != nil {
		return err
	}
	return metadata.RecordEnv(conf.EnvPrefix + "_")
}

// ExitCode maps outcome of experiment to exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExOK
	}

	var constraintError *resource.ResourceConstraintError
	var validationError *apps.ValidationError
	switch {
	case errors.Is(err, context.Canceled):
		return ExCancelled
	case errors.As(err, &constraintError):
		return ExUnavailable
	case errors.As(err, &validationError):
		return ExConfig
	default:
		return ExFailure
	}
}
