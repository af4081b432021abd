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

package experiment

import (
	"os"
	"path/filepath"
	"time"

	"github.com/intelsdi-x/rig/pkg/utils/fs"
	"github.com/intelsdi-x/rig/pkg/utils/uuid"
	"github.com/pkg/errors"
)

// Session identifies a single experiment run and its data directory.
type Session struct {
	ID   string
	Name string
	// DataDir must exist before the session directory is created in it.
	DataDir   string
	Directory string
}

// NewSession returns session with new unique ID. Nothing is created on disk.
func NewSession(appName, dataDir string) Session {
	id := uuid.New()
	name := time.Now().Format("2006-01-02T15h04m05s_") + id
	return Session{
		ID:        id,
		Name:      name,
		DataDir:   dataDir,
		Directory: filepath.Join(dataDir, appName, name),
	}
}

// CreateDirectory creates session directory with its parents inside data directory.
// Missing data directory is never created.
func (s Session) CreateDirectory() error {
	if !fs.Exists(s.DataDir) {
		return errors.Errorf("data directory %q does not exist", s.DataDir)
	}
	if err := os.MkdirAll(s.Directory, 0755); err != nil {
		return errors.Wrapf(err, "cannot create session directory %q", s.Directory)
	}
	return nil
}
