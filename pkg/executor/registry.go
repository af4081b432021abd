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
	"sync"

	"github.com/intelsdi-x/rig/pkg/utils/errcollection"
	"github.com/sirupsen/logrus"
)

// Registry keeps every task handle started within a scope, so all of them can be
// stopped on any exit path.
type Registry struct {
	sync.Mutex
	taskHandles []TaskHandle
}

// NewRegistry returns empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds task handle to registry.
func (r *Registry) Register(taskHandle TaskHandle) {
	r.Lock()
	defer r.Unlock()
	r.taskHandles = append(r.taskHandles, taskHandle)
}

// Live returns number of registered task handles which are still running.
func (r *Registry) Live() int {
	r.Lock()
	defer r.Unlock()
	live := 0
	for _, taskHandle := range r.taskHandles {
		if taskHandle.Status() == RUNNING {
			live++
		}
	}
	return live
}

// StopAll stops all registered task handles in reverse order and forgets them.
// Every handle is stopped even if some of them fail.
func (r *Registry) StopAll() error {
	r.Lock()
	defer r.Unlock()

	var errorCollection errcollection.ErrorCollection
	for i := len(r.taskHandles) - 1; i >= 0; i-- {
		taskHandle := r.taskHandles[i]
		logrus.Debugf("registry: stopping %v", taskHandle)
		err := taskHandle.Stop()
		logrus.Debugf("registry: %v Stop() returned %v", taskHandle, err)
		errorCollection.Add(err)
	}
	r.taskHandles = nil
	return errorCollection.GetErrIfAny()
}

// Executor returns exec decorated to register every task handle it starts.
func (r *Registry) Executor(exec Executor) Executor {
	return registeringExecutor{Executor: exec, registry: r}
}

type registeringExecutor struct {
	Executor
	registry *Registry
}

// Execute starts program with decorated executor and registers its handle.
func (e registeringExecutor) Execute(name string, args ...string) (TaskHandle, error) {
	taskHandle, err := e.Executor.Execute(name, args...)
	if err != nil {
		return nil, err
	}
	e.registry.Register(taskHandle)
	return taskHandle, nil
}
