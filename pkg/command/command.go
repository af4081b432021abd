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

// Package command describes units of work which can be executed as a local
// subprocess or dispatched to a remote endpoint. Both ways produce the same Result.
package command

import (
	"runtime"
	"strings"
)

// Command is an immutable program name with arguments.
type Command struct {
	name string
	args []string
}

// New returns Command running name with given arguments.
func New(name string, args ...string) Command {
	return Command{
		name: name,
		args: append([]string{}, args...),
	}
}

// Shell returns Command interpreting line with platform shell.
func Shell(line string) Command {
	if runtime.GOOS == "windows" {
		return New("cmd", "/C", line)
	}
	return New("sh", "-c", line)
}

// Name returns program name.
func (c Command) Name() string {
	return c.name
}

// Args returns copy of arguments.
func (c Command) Args() []string {
	return append([]string{}, c.args...)
}

// IsZero is true for Command without a program.
func (c Command) IsZero() bool {
	return c.name == ""
}

func (c Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}
