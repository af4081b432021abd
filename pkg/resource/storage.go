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
	"github.com/intelsdi-x/rig/pkg/utils/fs"
	"github.com/shirou/gopsutil/v4/disk"
)

// StorageInspector returns free bytes available at path.
type StorageInspector func(path string) (uint64, error)

// DiskFree inspects filesystem statistics of path.
func DiskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// AvailableStorageConstraint holds when at least minFreeBytes are free at path.
// Missing or inaccessible path makes it fail.
func AvailableStorageConstraint(path string, minFreeBytes uint64) Constraint {
	return AvailableStorageConstraintWith(DiskFree, path, minFreeBytes)
}

// AvailableStorageConstraintWith is AvailableStorageConstraint using given inspector.
func AvailableStorageConstraintWith(inspector StorageInspector, path string, minFreeBytes uint64) Constraint {
	return Constraint{
		Name:           "available_storage",
		Target:         path,
		FailureMessage: fmt.Sprintf("at least %s of free storage required", units.HumanSize(float64(minFreeBytes))),
		Predicate: func(target string) (bool, string, error) {
			free, err := inspector(target)
			if err != nil {
				return false, "", err
			}
			return free >= minFreeBytes, fmt.Sprintf("%s available", units.HumanSize(float64(free))), nil
		},
	}
}

// PathExistsConstraint holds when path exists. It never creates the path.
func PathExistsConstraint(path string) Constraint {
	return Constraint{
		Name:           "path_exists",
		Target:         path,
		FailureMessage: fmt.Sprintf("%q must exist", path),
		Predicate: func(target string) (bool, string, error) {
			if fs.Exists(target) {
				return true, "present", nil
			}
			return false, "missing", nil
		},
	}
}
