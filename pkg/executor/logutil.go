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
	"bufio"
	"fmt"
	"math/rand"
	"strings"

	"github.com/intelsdi-x/rig/pkg/utils/fs"
	"github.com/sirupsen/logrus"
)

// TailLineCount is number of output lines logged for unsuccessful execution.
const TailLineCount = 5

func outputFileNames(whatWasExecuted, whereWasExecuted string, handle TaskHandle) (stdoutFileName, stderrFileName string) {
	stdoutFile, err := handle.StdoutFile()
	if err != nil {
		logrus.Errorf("Could not read stdout filename for command %s on %s", whatWasExecuted, whereWasExecuted)
		stdoutFileName = fmt.Sprintf("%v", err)
	} else {
		stdoutFileName = stdoutFile.Name()
		stdoutFile.Close()
	}

	stderrFile, err := handle.StderrFile()
	if err != nil {
		logrus.Errorf("Could not read stderr filename for command %s on %s", whatWasExecuted, whereWasExecuted)
		stderrFileName = fmt.Sprintf("%v", err)
	} else {
		stderrFileName = stderrFile.Name()
		stderrFile.Close()
	}
	return stdoutFileName, stderrFileName
}

// LogSuccessfulExecution is helper function for logging standard output and standard error
// file names
func LogSuccessfulExecution(whatWasExecuted string, whereWasExecuted string, handle TaskHandle) {
	id := rand.Intn(9999)
	stdoutFileName, stderrFileName := outputFileNames(whatWasExecuted, whereWasExecuted, handle)

	logrus.Debugf("%4d Process %q on %q on %q has ended", id, whatWasExecuted, whereWasExecuted, handle.Address())
	logrus.Debugf("%4d Stdout stored in %q", id, stdoutFileName)
	logrus.Debugf("%4d Stderr stored in %q", id, stderrFileName)

	exitCode, err := handle.ExitCode()
	if err != nil {
		logrus.Debugf("%4d Could not read exit code: %v", id, err)
	} else {
		logrus.Debugf("%4d Exit code: %d", id, exitCode)
	}
}

// LogUnsuccessfulExecution is helper function for logging standard output and standard error
// of task handles
func LogUnsuccessfulExecution(whatWasExecuted string, whereWasExecuted string, handle TaskHandle) {
	stdoutFileName, stderrFileName := outputFileNames(whatWasExecuted, whereWasExecuted, handle)

	stdoutTail, err := fs.ReadTail(stdoutFileName, TailLineCount)
	if err != nil {
		stdoutTail = fmt.Sprintf("%v", err)
	}
	stderrTail, err := fs.ReadTail(stderrFileName, TailLineCount)
	if err != nil {
		stderrTail = fmt.Sprintf("%v", err)
	}

	id := rand.Intn(9999)
	logrus.Errorf("%4d Command %q might have ended prematurely on %q on address %q", id, whatWasExecuted, whereWasExecuted, handle.Address())
	logrus.Errorf("%4d Stdout stored in %q", id, stdoutFileName)
	logrus.Errorf("%4d Stderr stored in %q", id, stderrFileName)
	logrus.Errorf("%4d Last %d lines of stdout", id, TailLineCount)
	ErrorLogLines(strings.NewReader(stdoutTail), id)
	logrus.Errorf("%4d Last %d lines of stderr", id, TailLineCount)
	ErrorLogLines(strings.NewReader(stderrTail), id)

	exitCode, err := handle.ExitCode()
	if err != nil {
		logrus.Errorf("%4d Could not read exit code: %v", id, err)
	} else {
		logrus.Errorf("%4d Exit code: %d", id, exitCode)
	}
}

// ErrorLogLines takes reader and some ID (eg. PID) and prints each line
// from reader in a separate log.Errorf("%4d <line>", pid, line) .
// Rationale behind this function is fact, that logrus does not support multi-line logs.
func ErrorLogLines(r *strings.Reader, logID int) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logrus.Errorf("%4d %s", logID, scanner.Text())
	}
	err := scanner.Err()
	if err != nil {
		logrus.Errorf("%4d Printing from reader failed: %q", logID, err.Error())
	}
}
