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

package command

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/intelsdi-x/rig/pkg/executor"
	"github.com/sirupsen/logrus"
)

// Runner executes commands in some place (locally or through remote endpoint).
// Nonzero exit is reported in Result, not as an error.
type Runner interface {
	// Run executes command and blocks until it ends or ctx is done.
	Run(ctx context.Context, cmd Command) (Result, error)
	// Name returns user-friendly name of runner.
	Name() string
}

// Execute runs command with given runner and logs its outcome.
// Output of failed commands is logged line by line, so it is never lost.
func Execute(ctx context.Context, cmd Command, runner Runner) (Result, error) {
	logrus.Debugf("Executing %q on %s", cmd, runner.Name())
	start := time.Now()

	result, err := runner.Run(ctx, cmd)
	if err != nil {
		logrus.Debugf("Executing %q on %s failed after %s: %v", cmd, runner.Name(), time.Since(start), err)
		return result, err
	}

	if !result.Succeeded() {
		id := rand.Intn(9999)
		logrus.Errorf("%4d Command %q on %s failed with status %s and exit code %d", id, cmd, runner.Name(), result.Status, result.ExitCode)
		logrus.Errorf("%4d Stdout:", id)
		executor.ErrorLogLines(strings.NewReader(result.Stdout), id)
		logrus.Errorf("%4d Stderr:", id)
		executor.ErrorLogLines(strings.NewReader(result.Stderr), id)
		return result, nil
	}

	logrus.Debugf("Command %q on %s ended in %s", cmd, runner.Name(), time.Since(start))
	return result, nil
}
