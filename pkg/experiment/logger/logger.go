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

package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/intelsdi-x/rig/pkg/experiment"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogFileName is name of log file in session directory.
const LogFileName = "rig.log"

// Initialize creates session directory and configures logrus to write both to
// the session log file and to stderr. Returned file should be closed at exit.
func Initialize(appName string, session experiment.Session) (*os.File, error) {
	if err := session.CreateDirectory(); err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile(filepath.Join(session.Directory, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create session log file")
	}

	// Setup logging set to both output and logFile.
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.100"})
	logrus.SetOutput(io.MultiWriter(logFile, os.Stderr))

	logrus.Infof("Starting experiment %s with session %s", appName, session.ID)
	logrus.Infof("Session directory %q", session.Directory)
	return logFile, nil
}
