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

//go:build !windows
// +build !windows

package executor

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// TestLocal tests the execution of process on local machine.
func TestLocal(t *testing.T) {
	outputDir, err := ioutil.TempDir("", "rig_local_")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(outputDir)

	Convey("While using Local executor", t, func() {
		l := NewLocal(LocalConfig{OutputDir: outputDir, StopGracePeriod: 2 * time.Second})
		So(l.Name(), ShouldEqual, "Local Executor")

		Convey("When blocking infinitively sleep command is executed", func() {
			taskHandle, err := l.Execute("sleep", "1000")
			So(err, ShouldBeNil)
			defer taskHandle.EraseOutput()
			defer taskHandle.Clean()
			defer taskHandle.Stop()

			Convey("Task should be still running and exit code should be unavailable", func() {
				So(taskHandle.Status(), ShouldEqual, RUNNING)
				_, err := taskHandle.ExitCode()
				So(err, ShouldNotBeNil)
			})

			Convey("When we wait for task termination with the 1ms timeout", func() {
				isTaskTerminated := taskHandle.Wait(1 * time.Millisecond)

				Convey("The timeout should exceed and the task not terminated", func() {
					So(isTaskTerminated, ShouldBeFalse)
					So(taskHandle.Status(), ShouldEqual, RUNNING)
				})
			})

			Convey("When we stop the task", func() {
				err := taskHandle.Stop()

				Convey("There should be no error and the task should be terminated by SIGTERM", func() {
					So(err, ShouldBeNil)
					So(taskHandle.Status(), ShouldEqual, TERMINATED)
					exitCode, err := taskHandle.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, -15)
				})

				Convey("Stopping it again should be a no-op", func() {
					So(taskHandle.Stop(), ShouldBeNil)
				})
			})

			Convey("When we wait on the wait channel after stop it should be closed", func() {
				waitChannel := GetWaitChannel(taskHandle)
				So(taskHandle.Stop(), ShouldBeNil)
				select {
				case <-waitChannel:
				case <-time.After(5 * time.Second):
					t.Error("wait channel was not closed")
				}
			})
		})

		Convey("When process ignoring SIGTERM is stopped it should be killed after grace period", func() {
			l := NewLocal(LocalConfig{OutputDir: outputDir, StopGracePeriod: 100 * time.Millisecond})
			taskHandle, err := l.Execute("sh", "-c", "trap '' TERM; while true; do sleep 0.05; done")
			So(err, ShouldBeNil)
			defer taskHandle.EraseOutput()
			defer taskHandle.Clean()

			// Give the shell time to install the trap.
			time.Sleep(200 * time.Millisecond)
			So(taskHandle.Stop(), ShouldBeNil)
			So(taskHandle.Status(), ShouldEqual, TERMINATED)
			exitCode, err := taskHandle.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, -9)
		})

		Convey("When command printing to stdout and stderr is executed", func() {
			taskHandle, err := l.Execute("sh", "-c", "echo output; echo error >&2; exit 3")
			So(err, ShouldBeNil)
			defer taskHandle.EraseOutput()

			So(taskHandle.Wait(0), ShouldBeTrue)
			So(taskHandle.Clean(), ShouldBeNil)

			Convey("Exit code should be propagated", func() {
				exitCode, err := taskHandle.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 3)
			})

			Convey("Both output files should contain written data", func() {
				stdoutFile, err := taskHandle.StdoutFile()
				So(err, ShouldBeNil)
				defer stdoutFile.Close()
				stdout, err := ioutil.ReadAll(stdoutFile)
				So(err, ShouldBeNil)
				So(string(stdout), ShouldEqual, "output\n")

				stderrFile, err := taskHandle.StderrFile()
				So(err, ShouldBeNil)
				defer stderrFile.Close()
				stderr, err := ioutil.ReadAll(stderrFile)
				So(err, ShouldBeNil)
				So(string(stderr), ShouldEqual, "error\n")
			})

			Convey("Logging helpers should not fail on terminated task", func() {
				LogUnsuccessfulExecution("sh", l.Name(), taskHandle)
				LogSuccessfulExecution("sh", l.Name(), taskHandle)
			})

			Convey("Erasing output should remove the files", func() {
				stdoutFile, err := taskHandle.StdoutFile()
				So(err, ShouldBeNil)
				name := stdoutFile.Name()
				stdoutFile.Close()

				So(taskHandle.EraseOutput(), ShouldBeNil)
				_, err = os.Stat(name)
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When not existing binary is executed there should be an error", func() {
			taskHandle, err := l.Execute("/not/existing/binary")
			So(err, ShouldNotBeNil)
			So(taskHandle, ShouldBeNil)
		})

		Convey("When working directory is configured it should be used", func() {
			workDir, err := ioutil.TempDir("", "rig_workdir_")
			So(err, ShouldBeNil)
			defer os.RemoveAll(workDir)

			l := NewLocal(LocalConfig{OutputDir: outputDir, WorkingDir: workDir})
			taskHandle, err := l.Execute("pwd")
			So(err, ShouldBeNil)
			defer taskHandle.EraseOutput()
			So(taskHandle.Wait(0), ShouldBeTrue)

			stdoutFile, err := taskHandle.StdoutFile()
			So(err, ShouldBeNil)
			defer stdoutFile.Close()
			stdout, err := ioutil.ReadAll(stdoutFile)
			So(err, ShouldBeNil)

			resolved, err := filepath.EvalSymlinks(workDir)
			if err != nil {
				resolved = workDir
			}
			So(string(stdout), ShouldBeIn, []string{workDir + "\n", resolved + "\n"})
		})
	})
}
