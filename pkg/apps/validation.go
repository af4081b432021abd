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

package apps

import (
	"encoding/xml"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// ValidateExecutable checks that path is a regular file which can be executed.
func ValidateExecutable(path string) error {
	if path == "" {
		return errors.New("executable path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.Errorf("%q is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return errors.Errorf("%q is not executable", path)
	}
	return nil
}

// ValidateXMLFile checks that path is a readable, well-formed XML document.
func ValidateXMLFile(path string) error {
	if path == "" {
		return errors.New("file path is empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := xml.NewDecoder(file)
	elements := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "%q is not well-formed XML", path)
		}
		if _, ok := token.(xml.StartElement); ok {
			elements++
		}
	}
	if elements == 0 {
		return errors.Errorf("%q has no root element", path)
	}
	return nil
}
