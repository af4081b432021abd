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
	"net"

	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server executes requested commands with a runner.
type Server struct {
	runner  command.Runner
	allowed map[string]struct{}
}

// NewServer returns Server running commands with runner. When allowed programs
// are given, any other program is refused with PermissionDenied.
func NewServer(runner command.Runner, allowed ...string) *Server {
	server := &Server{runner: runner}
	if len(allowed) > 0 {
		server.allowed = map[string]struct{}{}
		for _, name := range allowed {
			server.allowed[name] = struct{}{}
		}
	}
	return server
}

// Execute implements CommandServer.
func (s *Server) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	if request.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "empty command")
	}
	if s.allowed != nil {
		if _, ok := s.allowed[request.Name]; !ok {
			return nil, status.Errorf(codes.PermissionDenied, "command %q is not allowed", request.Name)
		}
	}

	result, err := command.Execute(ctx, command.New(request.Name, request.Args...), s.runner)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return &ExecuteResponse{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	}, nil
}

// Serve serves the command service on listener until ctx is done.
func Serve(ctx context.Context, listener net.Listener, server CommandServer) error {
	grpcServer := grpc.NewServer()
	RegisterCommandServer(grpcServer, server)

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- grpcServer.Serve(listener)
	}()
	logrus.Infof("Command service listening on %s", listener.Addr())

	select {
	case <-ctx.Done():
		logrus.Debugf("Command service on %s is stopping", listener.Addr())
		grpcServer.GracefulStop()
		return nil
	case err := <-serveErrors:
		return errors.Wrapf(err, "command service on %s failed", listener.Addr())
	}
}
