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

package launcher

import (
	"fmt"
	"os"

	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/experiment"
	"github.com/intelsdi-x/rig/pkg/utils/errutil"
	"github.com/sirupsen/logrus"
)

var (
	// dumpConfigFlag name includes dash to exclude it from dumping.
	dumpConfigFlag = conf.NewBoolFlag("config-dump", "Dump configuration as environment script.", false)

	// dumpConfigSessionIDFlag name includes dash to exclude it from dumping.
	dumpConfigSessionIDFlag = conf.NewStringFlag("config-dump-session-id", "Dump configuration recorded for given session ID.", "")
)

// Configure handles configuration parsing and generation based on config-* flags
// and returns settings of the run.
// Note: exits if configuration generation was requested or configuration is invalid.
func Configure() Settings {
	err := conf.ParseFlags()
	if err != nil {
		logrus.Errorf("Cannot parse flags: %q", err.Error())
		os.Exit(ExUsage)
	}
	logrus.SetLevel(conf.LogLevel())

	if dumpConfigFlag.Value() {
		previousSessionID := dumpConfigSessionIDFlag.Value()
		if previousSessionID != "" {
			metadata := experiment.NewMetadata(previousSessionID, experiment.MetadataConfigFromFlags())
			err := metadata.Connect()
			errutil.Check(err)
			flags, err := metadata.GetGroup("flags")
			errutil.Check(err)
			fmt.Println(conf.DumpConfigMap(flags))
		} else {
			fmt.Println(conf.DumpConfig())
		}
		os.Exit(ExOK)
	}

	settings := SettingsFromFlags()
	if settings.SettingsFile != "" {
		settings, err = LoadSettingsFile(settings.SettingsFile, settings)
		if err != nil {
			logrus.Errorf("Cannot load settings: %v", err)
			os.Exit(ExUsage)
		}
	}
	if err := settings.Validate(); err != nil {
		logrus.Errorf("Invalid settings: %v", err)
		os.Exit(ExUsage)
	}
	return settings
}
