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

/*
Package conf wraps kingpin to provide:
- environment parsing with predefined RIG_ prefix,
- config script generation in definition order (instead of lexicographical order),
- ability to extract current values of registered flags (defined with wrappers),
- new types of flags e.g. SliceFlag,
- predefined flag for logging (logrus integration).

Flags are declared as package variables next to the code that consumes them:

	var dataDirFlag = conf.NewStringFlag("data_dir", "Directory for session data", "./data")

When ParseEnv is executed, only the environment variables are parsed. It can be run
multiple times. When ParseFlags is executed, both the command line and the environment
are parsed. Before any parse, Value() returns the default.
*/
package conf
