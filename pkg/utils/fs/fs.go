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

package fs

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ReadTail returns the last lineCount lines of the file at filePath.
func ReadTail(filePath string, lineCount int) (tail string, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "could not read tail of %q", filePath)
	}
	defer file.Close()

	if lineCount <= 0 {
		return "", nil
	}

	lines := make([]string, 0, lineCount)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(lines) == lineCount {
			lines = lines[1:]
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(err, "could not read tail of %q", filePath)
	}

	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Exists returns true when something exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
