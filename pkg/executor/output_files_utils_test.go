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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	// expectedFileMode is a string equivalent of 0644
	expectedFileMode = "-rw-r--r--"
	// expectedDirMode is a string equivalent of 0755
	expectedDirMode = "drwxr-xr-x"
)

func TestCreateExecutorOutputFiles(t *testing.T) {
	Convey("I should be able to create files and folders for experiment details", t, func() {
		outputDir, err := ioutil.TempDir("", "rig_output_")
		So(err, ShouldBeNil)
		defer os.RemoveAll(outputDir)

		stdout, stderr, err := createExecutorOutputFiles(outputDir, "/usr/bin/command", "test")
		So(err, ShouldBeNil)
		So(stdout, ShouldNotBeNil)
		So(stderr, ShouldNotBeNil)
		defer stdout.Close()
		defer stderr.Close()

		Convey("Which should have got valid modes and names", func() {
			eStat, err := stderr.Stat()
			So(err, ShouldBeNil)
			So(eStat.Mode().String(), ShouldEqual, expectedFileMode)

			oStat, err := stdout.Stat()
			So(err, ShouldBeNil)
			So(oStat.Mode().String(), ShouldEqual, expectedFileMode)

			parentDir := filepath.Dir(stdout.Name())
			pDirStat, err := os.Stat(parentDir)
			So(err, ShouldBeNil)
			So(pDirStat.Mode().String(), ShouldEqual, expectedDirMode)
			So(filepath.Base(parentDir), ShouldStartWith, "test_command_")
			So(filepath.Dir(parentDir), ShouldEqual, outputDir)
		})
	})

	Convey("Empty command should be rejected", t, func() {
		_, _, err := createExecutorOutputFiles("", " ", "test")
		So(err, ShouldNotBeNil)
	})
}
