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

package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/conf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var (
	addressFlag   = conf.NewStringFlag("rpc_address", "Address of the remote command endpoint", "localhost:5000")
	timeoutFlag   = conf.NewDurationFlag("rpc_timeout", "Timeout of a single remote command", 30*time.Second)
	serializeFlag = conf.NewBoolFlag("rpc_serialize", "Send one remote command at a time", false)
)

// Settings describes remote command endpoint.
type Settings struct {
	Address string `yaml:"address"`
	// Timeout bounds every call. No timeout when zero.
	Timeout time.Duration `yaml:"timeout"`
	// Serialize makes client send one request at a time, for endpoints which cannot multiplex.
	Serialize bool `yaml:"serialize"`
}

// DefaultSettings returns settings taken from flags.
func DefaultSettings() Settings {
	return Settings{
		Address:   addressFlag.Value(),
		Timeout:   timeoutFlag.Value(),
		Serialize: serializeFlag.Value(),
	}
}

// Client dispatches commands to remote command endpoint.
// It implements command.Runner.
type Client struct {
	settings Settings
	conn     *grpc.ClientConn
	mutex    *sync.Mutex
}

// Dial returns Client for the endpoint. Connection is established lazily on first call,
// so an unreachable endpoint is reported as TransportError by Run.
func Dial(settings Settings, options ...grpc.DialOption) (*Client, error) {
	if settings.Address == "" {
		return nil, errors.New("remote command endpoint address is empty")
	}

	options = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, options...)

	conn, err := grpc.NewClient(settings.Address, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create client for %s", settings.Address)
	}

	return &Client{
		settings: settings,
		conn:     conn,
		mutex:    &sync.Mutex{},
	}, nil
}

// WithTimeout returns client sharing connection and serialization with c, but
// bounding calls by timeout instead. Zero timeout lets a command run as long as
// the context given to Run allows, e.g. an application launched remotely.
// Closing either client closes the shared connection.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	settings := c.settings
	settings.Timeout = timeout
	return &Client{
		settings: settings,
		conn:     c.conn,
		mutex:    c.mutex,
	}
}

// Name returns user-friendly name of runner.
func (c *Client) Name() string {
	return "rpc " + c.settings.Address
}

// Address returns address of the endpoint.
func (c *Client) Address() string {
	return c.settings.Address
}

// Run sends command to the endpoint and waits for result.
// Error status reported by the endpoint is returned as Result with ExitCode -1;
// unreachable endpoint yields *command.TransportError. Command which reached
// the endpoint but did not finish within the timeout yields error wrapping
// context.DeadlineExceeded; the endpoint stops it.
func (c *Client) Run(ctx context.Context, cmd command.Command) (command.Result, error) {
	if c.settings.Serialize {
		c.mutex.Lock()
		defer c.mutex.Unlock()
	}

	callCtx := ctx
	if c.settings.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
		defer cancel()
	}

	request := &ExecuteRequest{Name: cmd.Name(), Args: cmd.Args()}
	response := new(ExecuteResponse)
	var endpoint peer.Peer
	err := c.conn.Invoke(callCtx, executeMethod, request, response, grpc.Peer(&endpoint))
	if err == nil {
		return command.Result{
			Stdout:   response.Stdout,
			Stderr:   response.Stderr,
			ExitCode: response.ExitCode,
			Status:   command.StatusOK,
		}, nil
	}

	// Caller gave up, it is not endpoint's fault.
	if ctx.Err() != nil {
		return command.Result{}, ctx.Err()
	}

	st := status.Convert(err)
	// Peer is known only when request reached the endpoint, so the command
	// was running there when the timeout expired.
	if st.Code() == codes.DeadlineExceeded && endpoint.Addr != nil {
		return command.Result{}, errors.Wrapf(context.DeadlineExceeded,
			"command %q on %s did not finish within %s", cmd, c.settings.Address, c.settings.Timeout)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		logrus.Debugf("Transport to %s failed for %q: %v", c.settings.Address, cmd, err)
		return command.Result{}, &command.TransportError{
			Address: c.settings.Address,
			Command: cmd,
			Err:     err,
		}
	}

	return command.Result{
		Stderr:   st.Message(),
		ExitCode: -1,
		Status:   st.Code().String(),
	}, nil
}

// Close closes the connection. Client must not be used afterwards.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return errors.Wrapf(err, "cannot close connection to %s", c.settings.Address)
	}
	return nil
}

// IsClosed returns true after Close.
func (c *Client) IsClosed() bool {
	return c.conn.GetState() == connectivity.Shutdown
}
