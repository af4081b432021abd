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

package executor

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// createExecutorOutputFiles creates fresh directory under outputDir (working directory
// when empty) with stdout and stderr files for the given program.
func createExecutorOutputFiles(outputDir, name, prefix string) (stdout, stderr *os.File, err error) {
	if len(strings.TrimSpace(name)) == 0 {
		return nil, nil, errors.New("empty command string")
	}

	if outputDir == "" {
		outputDir, err = os.Getwd()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to get working directory")
		}
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create output parent directory %q", outputDir)
	}

	commandName := strings.Fields(filepath.Base(name))[0]
	directory, err := ioutil.TempDir(outputDir, prefix+"_"+commandName+"_")
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create output directory for %q", commandName)
	}
	if err := os.Chmod(directory, 0755); err != nil {
		os.RemoveAll(directory)
		return nil, nil, errors.Wrapf(err, "failed to set privileges for dir %q", directory)
	}

	stdout, err = os.Create(filepath.Join(directory, "stdout"))
	if err != nil {
		os.RemoveAll(directory)
		return nil, nil, errors.Wrapf(err, "failed to create stdout file for %q", commandName)
	}

	stderr, err = os.Create(filepath.Join(directory, "stderr"))
	if err != nil {
		stdout.Close()
		os.RemoveAll(directory)
		return nil, nil, errors.Wrapf(err, "failed to create stderr file for %q", commandName)
	}

	return stdout, stderr, nil
}
