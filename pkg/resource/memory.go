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

package resource

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryInspector returns bytes of memory available for new processes.
type MemoryInspector func() (uint64, error)

// MemoryAvailable inspects virtual memory statistics of the host.
func MemoryAvailable() (uint64, error) {
	memory, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return memory.Available, nil
}

// AvailableMemoryConstraint holds when at least minBytes of memory are available.
func AvailableMemoryConstraint(minBytes uint64) Constraint {
	return AvailableMemoryConstraintWith(MemoryAvailable, minBytes)
}

// AvailableMemoryConstraintWith is AvailableMemoryConstraint using given inspector.
func AvailableMemoryConstraintWith(inspector MemoryInspector, minBytes uint64) Constraint {
	return Constraint{
		Name:           "available_memory",
		Target:         "memory",
		FailureMessage: fmt.Sprintf("at least %s of available memory required", units.HumanSize(float64(minBytes))),
		Predicate: func(string) (bool, string, error) {
			available, err := inspector()
			if err != nil {
				return false, "", err
			}
			return available >= minBytes, fmt.Sprintf("%s available", units.HumanSize(float64(available))), nil
		},
	}
}
