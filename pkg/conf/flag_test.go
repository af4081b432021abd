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

package conf

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEnvFlag(t *testing.T) {
	Convey("While using Flag struct, it should construct proper environment var name", t, func() {
		So(NewStringFlag("test_name", "", "").envName(), ShouldEqual, "RIG_TEST_NAME")
	})
}

func TestFlags(t *testing.T) {
	Convey("While using Conf flags", t, func() {
		Convey("When some custom Int Flag is defined", func() {
			customFlag := NewIntFlag("custom_int_arg", "help", 23424)
			customFlag.clear()
			defer customFlag.clear()

			Convey("When we do not define any environment variable we should have default value after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 23424)
			})

			Convey("When we define custom environment variable we should have custom value after parse", func() {
				os.Setenv(customFlag.envName(), "12")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 12)
			})
		})

		Convey("When some custom Bool Flag is defined", func() {
			customFlag := NewBoolFlag("custom_bool_arg", "help", false)
			customFlag.clear()
			defer customFlag.clear()

			Convey("Environment should switch it on", func() {
				os.Setenv(customFlag.envName(), "true")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldBeTrue)
			})
		})

		Convey("When some custom Duration Flag is defined", func() {
			customFlag := NewDurationFlag("custom_duration_arg", "help", 2*time.Second)
			customFlag.clear()
			defer customFlag.clear()

			Convey("Default should be kept after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 2*time.Second)
			})

			Convey("Environment should override it", func() {
				os.Setenv(customFlag.envName(), "150ms")
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldEqual, 150*time.Millisecond)
			})
		})

		Convey("When some custom Slice Flag is defined", func() {
			customFlag := NewSliceFlag("custom_slice_arg", "help")
			customFlag.clear()
			defer customFlag.clear()

			Convey("Without values it should be empty after parse", func() {
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldResemble, []string{})
			})

			Convey("Environment value should be split and not accumulate over parses", func() {
				os.Setenv(customFlag.envName(), "a,b")
				So(ParseEnv(), ShouldBeNil)
				So(ParseEnv(), ShouldBeNil)
				So(customFlag.Value(), ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("Redefining a flag with the same type and default should return the same flag", func() {
			first := NewStringFlag("redefined_arg", "help", "x")
			So(NewStringFlag("redefined_arg", "help", "x"), ShouldEqual, first)
			So(func() { NewIntFlag("redefined_arg", "help", 1) }, ShouldPanic)
			So(func() { NewStringFlag("redefined_arg", "help", "y") }, ShouldPanic)
		})
	})
}
