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

package conf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// EnvPrefix is prepended to the upper-cased flag name to build its environment variable.
const EnvPrefix = "RIG"

var (
	app = kingpin.New("rig", "No help available")
	// Default flags and values.
	logLevelFlag = NewStringFlag(
		"log",
		"Log level: debug, info, warn, error, fatal, panic",
		"error", // Default Error log level.
	)
	isEnvParsed = false
)

// SetHelp sets the help message for the CLI.
func SetHelp(help string) {
	app.Help = help
}

// SetAppName sets application name for CLI output.
func SetAppName(name string) {
	app.Name = name
}

// AppName returns specified app name.
func AppName() string {
	return app.Name
}

// LogLevel returns configured logLevel from input option or env variable.
// If it cannot parse the log level, it returns default value.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(logLevelFlag.Value())
	if err == nil {
		return level
	}

	level, err = logrus.ParseLevel(logLevelFlag.defaultValue)
	if err == nil {
		return level
	}

	// Programmer error.
	panic(errors.Wrap(err, "parsing log level failed"))
}

// ParseFlags parses both the command line flags of the process and
// environment variables.
func ParseFlags() error {
	if err := parse(os.Args[1:]); err != nil {
		return errors.Wrap(err, "could not parse command line flags")
	}
	return nil
}

// ParseEnv parses the environment for arguments.
func ParseEnv() error {
	if err := parse([]string{}); err != nil {
		return errors.Wrap(err, "could not parse environment flags")
	}
	return nil
}

func parse(args []string) error {
	// Cumulative values would otherwise grow on every parse.
	for _, flag := range definedFlags {
		flag.reset()
	}

	if _, err := app.Parse(args); err != nil {
		return err
	}
	isEnvParsed = true
	return nil
}

type flagDefinition struct {
	Name, Value, Default, Help string
}

// getFlagsDefinition returns current, default, keys and description for every flag.
// Notes: order is important because it logically groups flags.
func getFlagsDefinition() (flags []flagDefinition) {
	for _, model := range app.Model().Flags {
		// Skip kingpin builtin flags and flags that aren't compatible with environment based configuration.
		if strings.Contains(model.Name, "-") {
			continue
		}

		flag, ok := definedFlags[model.Name]
		if !ok {
			continue
		}

		flags = append(flags, flagDefinition{
			Name:    model.Name,
			Help:    model.Help,
			Default: strings.Join(model.Default, ","),
			Value:   flag.valueString(),
		})
	}

	return flags
}

// DumpConfig dumps environment based configuration with current values of flags.
func DumpConfig() string {
	return DumpConfigMap(nil)
}

// DumpConfigMap dumps environment based configuration with current values overwritten by given flagMap.
// Includes "allexport" directives for bash.
func DumpConfigMap(flagMap map[string]string) string {
	buffer := &bytes.Buffer{}

	buffer.WriteString("# Export are values.\n")
	buffer.WriteString("set -o allexport\n")

	for _, fd := range getFlagsDefinition() {
		fmt.Fprintf(buffer, "\n# %s\n", fd.Help)
		if fd.Default != "" {
			fmt.Fprintf(buffer, "# Default: %s\n", fd.Default)
		}

		value := fd.Value
		if mapValue, ok := flagMap[fd.Name]; ok {
			value = mapValue
		}

		fmt.Fprintf(buffer, "%s_%s=%v\n", EnvPrefix, strings.ToUpper(fd.Name), value)
	}

	buffer.WriteString("set +o allexport")
	return buffer.String()
}

// GetFlags returns flags as map with current values.
func GetFlags() map[string]string {
	flagsMap := map[string]string{}
	for _, flag := range getFlagsDefinition() {
		flagsMap[flag.Name] = flag.Value
	}
	return flagsMap
}
