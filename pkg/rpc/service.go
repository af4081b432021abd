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

	"google.golang.org/grpc"
)

const (
	serviceName   = "rig.CommandService"
	executeMethod = "/rig.CommandService/Execute"
)

// ExecuteRequest asks the endpoint to run a program with arguments.
type ExecuteRequest struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// ExecuteResponse carries output captured by the endpoint.
type ExecuteResponse struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// CommandServer is the server API for the command service.
type CommandServer interface {
	Execute(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
}

// RegisterCommandServer registers implementation of the command service.
func RegisterCommandServer(registrar grpc.ServiceRegistrar, server CommandServer) {
	registrar.RegisterService(&commandServiceDesc, server)
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecuteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: executeMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommandServer).Execute(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var commandServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CommandServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    executeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rig/command",
}
