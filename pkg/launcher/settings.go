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
	"io/ioutil"
	"strings"

	"github.com/intelsdi-x/rig/pkg/apps/bonsai"
	"github.com/intelsdi-x/rig/pkg/apps/openephys"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/intelsdi-x/rig/pkg/experiment"
	"github.com/intelsdi-x/rig/pkg/resource"
	"github.com/intelsdi-x/rig/pkg/rpc"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	dataDirFlag        = conf.NewStringFlag("data_dir", "Directory for session data and logs", "./data")
	minFreeStorageFlag = conf.NewStringFlag("min_free_storage", "Minimal free storage in data directory, e.g. 200GB or 2e11", "200GB")
	minFreeMemoryFlag  = conf.NewStringFlag("min_free_memory", "Minimal available memory on the host, e.g. 4GB. Not checked when empty.", "")
	probeFlag          = conf.NewSliceFlag("rpc_probe", "Command run on the remote endpoint before applications start (--rpc_probe=ipconfig --rpc_probe='hostname')", "ipconfig")
	probeFatalFlag     = conf.NewBoolFlag("rpc_probe_fatal", "Abort the experiment when a probe fails", false)
	settingsFileFlag   = conf.NewStringFlag("settings_file", "YAML file overlaying settings given by flags", "")
	metricsAddressFlag = conf.NewStringFlag("metrics_address", "Address to serve Prometheus metrics on. Disabled when empty.", "")
)

// Settings holds configuration of a single experiment run.
type Settings struct {
	DataDir        string   `yaml:"data_dir"`
	MinFreeStorage string   `yaml:"min_free_storage"`
	MinFreeMemory  string   `yaml:"min_free_memory"`
	Probes         []string `yaml:"probes"`
	ProbeFatal     bool     `yaml:"probe_fatal"`
	MetricsAddress string   `yaml:"metrics_address"`

	RPC       rpc.Settings              `yaml:"rpc"`
	Bonsai    bonsai.Config             `yaml:"bonsai"`
	OpenEphys openephys.Config          `yaml:"openephys"`
	Cassandra experiment.MetadataConfig `yaml:"cassandra"`

	// SettingsFile is the file settings were loaded from, if any.
	SettingsFile string `yaml:"-"`
}

// SettingsFromFlags returns settings from command line flags and environment.
func SettingsFromFlags() Settings {
	return Settings{
		DataDir:        dataDirFlag.Value(),
		MinFreeStorage: minFreeStorageFlag.Value(),
		MinFreeMemory:  minFreeMemoryFlag.Value(),
		Probes:         probeFlag.Value(),
		ProbeFatal:     probeFatalFlag.Value(),
		MetricsAddress: metricsAddressFlag.Value(),
		RPC:            rpc.DefaultSettings(),
		Bonsai:         bonsai.DefaultConfig(),
		OpenEphys:      openephys.DefaultConfig(),
		Cassandra:      experiment.MetadataConfigFromFlags(),
		SettingsFile:   settingsFileFlag.Value(),
	}
}

// LoadSettingsFile overlays base with values present in YAML file at path.
// Keys missing in the file keep their base values.
func LoadSettingsFile(path string, base Settings) (Settings, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "cannot read settings file %q", path)
	}

	settings := base
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, errors.Wrapf(err, "cannot parse settings file %q", path)
	}
	settings.SettingsFile = path
	return settings, nil
}

// MinFreeStorageBytes returns parsed storage threshold.
func (s Settings) MinFreeStorageBytes() (uint64, error) {
	bytes, err := resource.ParseBytes(s.MinFreeStorage)
	if err != nil {
		return 0, errors.Wrap(err, "invalid minimal free storage")
	}
	return bytes, nil
}

// MinFreeMemoryBytes returns parsed memory threshold or zero when it is not set.
func (s Settings) MinFreeMemoryBytes() (uint64, error) {
	if strings.TrimSpace(s.MinFreeMemory) == "" {
		return 0, nil
	}
	bytes, err := resource.ParseBytes(s.MinFreeMemory)
	if err != nil {
		return 0, errors.Wrap(err, "invalid minimal free memory")
	}
	return bytes, nil
}

// Monitor returns resource monitor checking storage in data directory and,
// when threshold is set, available memory.
func (s Settings) Monitor() (*resource.Monitor, error) {
	minFreeStorage, err := s.MinFreeStorageBytes()
	if err != nil {
		return nil, err
	}
	minFreeMemory, err := s.MinFreeMemoryBytes()
	if err != nil {
		return nil, err
	}

	constraints := []resource.Constraint{resource.AvailableStorageConstraint(s.DataDir, minFreeStorage)}
	if minFreeMemory > 0 {
		constraints = append(constraints, resource.AvailableMemoryConstraint(minFreeMemory))
	}
	return resource.NewMonitor(constraints...), nil
}

// ProbeCommands returns probes as commands. Blank probes are skipped.
func (s Settings) ProbeCommands() []command.Command {
	commands := []command.Command{}
	for _, probe := range s.Probes {
		fields := strings.Fields(probe)
		if len(fields) == 0 {
			continue
		}
		commands = append(commands, command.New(fields[0], fields[1:]...))
	}
	return commands
}

// ProbePolicy returns policy of probes.
func (s Settings) ProbePolicy() experiment.ProbePolicy {
	if s.ProbeFatal {
		return experiment.ProbeFatal
	}
	return experiment.ProbeInformational
}

// Validate checks settings which cannot be checked when flags are parsed.
func (s Settings) Validate() error {
	if s.DataDir == "" {
		return errors.New("data directory is not set")
	}
	if _, err := s.MinFreeStorageBytes(); err != nil {
		return err
	}
	if _, err := s.MinFreeMemoryBytes(); err != nil {
		return err
	}
	return nil
}
