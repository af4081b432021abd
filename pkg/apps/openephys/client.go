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

package openephys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Mode is acquisition mode of Open Ephys GUI.
type Mode string

const (
	// Idle mode does not acquire data.
	Idle Mode = "IDLE"
	// Acquire mode acquires data without writing it.
	Acquire Mode = "ACQUIRE"
	// Record mode acquires and writes data.
	Record Mode = "RECORD"
)

type statusMessage struct {
	Mode Mode `json:"mode"`
}

type recordingMessage struct {
	ParentDirectory string `json:"parent_directory,omitempty"`
	BaseText        string `json:"base_text,omitempty"`
}

// ReadinessCheck returns error when control endpoint must not be used yet.
type ReadinessCheck func() error

// Client speaks HTTP API of Open Ephys GUI. It implements apps.Controller.
type Client struct {
	application string
	baseURL     string
	httpClient  *http.Client
	ready       ReadinessCheck
}

// NewClient returns Client of GUI listening on address. Every call first consults ready.
func NewClient(application, address string, timeout time.Duration, ready ReadinessCheck) *Client {
	baseURL := address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		application: application,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		ready:       ready,
	}
}

// Mode returns current acquisition mode.
func (c *Client) Mode(ctx context.Context) (Mode, error) {
	var status statusMessage
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return "", err
	}
	return status.Mode, nil
}

// SetMode switches acquisition mode and returns the mode reported back.
func (c *Client) SetMode(ctx context.Context, mode Mode) (Mode, error) {
	var status statusMessage
	if err := c.do(ctx, http.MethodPut, "/api/status", statusMessage{Mode: mode}, &status); err != nil {
		return "", err
	}
	if status.Mode != "" && status.Mode != mode {
		return status.Mode, errors.Errorf("%s reported mode %s instead of %s", c.application, status.Mode, mode)
	}
	return mode, nil
}

// StartAcquisition switches GUI to ACQUIRE mode.
func (c *Client) StartAcquisition(ctx context.Context) error {
	_, err := c.SetMode(ctx, Acquire)
	return err
}

// StopAcquisition switches GUI to IDLE mode.
func (c *Client) StopAcquisition(ctx context.Context) error {
	_, err := c.SetMode(ctx, Idle)
	return err
}

// StartRecording switches GUI to RECORD mode.
func (c *Client) StartRecording(ctx context.Context) error {
	_, err := c.SetMode(ctx, Record)
	return err
}

// SetRecordingDirectory sets parent directory of new recordings.
func (c *Client) SetRecordingDirectory(ctx context.Context, directory string) error {
	return c.do(ctx, http.MethodPut, "/api/recording", recordingMessage{ParentDirectory: directory}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.ready != nil {
		if err := c.ready(); err != nil {
			return err
		}
	}

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return errors.Wrapf(err, "cannot encode request to %s", path)
		}
	}

	request, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "cannot create request to %s", path)
	}
	request = request.WithContext(ctx)
	request.Header.Set("Content-Type", "application/json")

	logrus.Debugf("%s: %s %s %s", c.application, method, path, body)
	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isConnectionRefused(err) {
			return &apps.NotReadyError{Application: c.application, State: apps.Running, Err: err}
		}
		return &command.TransportError{
			Address: c.baseURL,
			Command: command.New(method, path),
			Err:     err,
		}
	}
	defer response.Body.Close()

	payload, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return errors.Wrapf(err, "cannot read response from %s", path)
	}
	if response.StatusCode/100 != 2 {
		return errors.Errorf("%s %s failed with %s: %s", method, path, response.Status, strings.TrimSpace(string(payload)))
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return errors.Wrapf(err, "cannot decode response from %s", path)
		}
	}
	return nil
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opError *net.OpError
	return errors.As(err, &opError) && opError.Op == "dial" && strings.Contains(opError.Error(), "refused")
}

func (c *Client) String() string {
	return fmt.Sprintf("%s control client (%s)", c.application, c.baseURL)
}
