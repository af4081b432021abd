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

package command_test

import (
	"context"
	"io/ioutil"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/intelsdi-x/rig/pkg/executor/mocks"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}

	outputDir, err := ioutil.TempDir("", "rig_command_")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(outputDir)

	Convey("With local runner", t, func() {
		runner := command.NewLocal(executor.NewLocal(executor.LocalConfig{OutputDir: outputDir, StopGracePeriod: time.Second}))
		ctx := context.Background()

		Convey("Echo should be captured fully", func() {
			result, err := command.Execute(ctx, command.New("echo", "hello"), runner)
			So(err, ShouldBeNil)
			So(result.Succeeded(), ShouldBeTrue)
			So(result.Stdout, ShouldEqual, "hello\n")
			So(result.Stderr, ShouldEqual, "")
			So(result.Status, ShouldEqual, command.StatusOK)
		})

		Convey("Nonzero exit should be reported in result, not as error", func() {
			result, err := command.Execute(ctx, command.Shell("echo partial; echo broken >&2; exit 4"), runner)
			So(err, ShouldBeNil)
			So(result.Succeeded(), ShouldBeFalse)
			So(result.ExitCode, ShouldEqual, 4)
			So(result.Stdout, ShouldEqual, "partial\n")
			So(result.Stderr, ShouldEqual, "broken\n")
		})

		Convey("Output of failed command should be logged once", func() {
			hook := test.NewGlobal()
			defer hook.Reset()

			result, err := command.Execute(ctx, command.Shell("echo marker-line; exit 3"), runner)
			So(err, ShouldBeNil)
			So(result.ExitCode, ShouldEqual, 3)

			logged := 0
			for _, entry := range hook.AllEntries() {
				if strings.Contains(entry.Message, "marker-line") {
					logged++
				}
			}
			So(logged, ShouldEqual, 1)
		})

		Convey("Spawn failure should be an error, but not a transport one", func() {
			_, err := runner.Run(ctx, command.New("/not/existing/binary"))
			So(err, ShouldNotBeNil)
			var transportError *command.TransportError
			So(errors.As(err, &transportError), ShouldBeFalse)
		})

		Convey("Empty command should be rejected", func() {
			_, err := runner.Run(ctx, command.Command{})
			So(err, ShouldNotBeNil)
		})

		Convey("Cancellation should stop the process and return context error", func() {
			ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := runner.Run(ctx, command.New("sleep", "1000"))
			So(err, ShouldEqual, context.DeadlineExceeded)
			So(time.Since(start), ShouldBeLessThan, 5*time.Second)
		})
	})
}

func TestLocalRunnerWithMockedExecutor(t *testing.T) {
	Convey("When executor cannot spawn a process", t, func() {
		mockedExecutor := new(mocks.Executor)
		mockedExecutor.On("Execute", "ipconfig").Return(nil, errors.New("no such file"))

		runner := command.NewLocal(mockedExecutor)
		_, err := runner.Run(context.Background(), command.New("ipconfig"))

		Convey("Error should be wrapped with command name", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ipconfig")
			So(errors.Cause(err).Error(), ShouldEqual, "no such file")
			mockedExecutor.AssertExpectations(t)
		})
	})

	Convey("When context is done before spawning", t, func() {
		mockedExecutor := new(mocks.Executor)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := command.NewLocal(mockedExecutor).Run(ctx, command.New("ipconfig"))
		So(err, ShouldEqual, context.Canceled)
		mockedExecutor.AssertNotCalled(t, "Execute", "ipconfig")
	})
}
