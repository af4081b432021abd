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
	"math"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
)

// ParseBytes parses human readable size ("200GB", "1.5GiB") or plain number
// of bytes, also in scientific notation ("2e11"). Decimal units are powers of 1000.
func ParseBytes(size string) (uint64, error) {
	size = strings.TrimSpace(size)
	if strings.ContainsAny(size, "iI") {
		if bytes, err := units.RAMInBytes(size); err == nil && bytes >= 0 {
			return uint64(bytes), nil
		}
	} else if bytes, err := units.FromHumanSize(size); err == nil && bytes >= 0 {
		return uint64(bytes), nil
	}

	value, err := strconv.ParseFloat(size, 64)
	if err != nil || !(value >= 0 && value < math.MaxUint64) {
		return 0, errors.Errorf("invalid size %q", size)
	}
	return uint64(value), nil
}
