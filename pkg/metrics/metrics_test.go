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

package metrics

import (
	"context"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCollector(t *testing.T) {
	Convey("With new collector", t, func() {
		c := NewCollector()

		Convey("Constraint checks should be counted per result", func() {
			c.ObserveConstraint("available_storage", true)
			c.ObserveConstraint("available_storage", false)
			c.ObserveConstraint("available_storage", false)
			So(testutil.ToFloat64(c.constraintChecks.WithLabelValues("available_storage", "satisfied")), ShouldEqual, 1)
			So(testutil.ToFloat64(c.constraintChecks.WithLabelValues("available_storage", "violated")), ShouldEqual, 2)
		})

		Convey("Only the last experiment state should be current", func() {
			c.ObserveExperimentState("Running")
			c.ObserveExperimentState("Succeeded")
			So(testutil.CollectAndCount(c.experimentState), ShouldEqual, 1)
			So(testutil.ToFloat64(c.experimentState.WithLabelValues("Succeeded")), ShouldEqual, 1)
		})

		Convey("Application transitions and auxiliary failures should be counted", func() {
			c.ObserveApplicationState("bonsai", "Running")
			c.ObserveApplicationState("bonsai", "Completed")
			c.ObserveAuxiliaryFailure("start openephys acquisition")
			So(testutil.ToFloat64(c.applicationStates.WithLabelValues("bonsai", "Completed")), ShouldEqual, 1)
			So(testutil.ToFloat64(c.auxiliaryFailures.WithLabelValues("start openephys acquisition")), ShouldEqual, 1)
		})

		Convey("Command durations should be observed", func() {
			c.ObserveCommand("rpc localhost:5000", "OK", 20*time.Millisecond)
			So(testutil.CollectAndCount(c.commandDuration), ShouldEqual, 1)
		})

		Convey("Handler should expose metrics", func() {
			c.ObserveExperimentState("Running")
			recorder := httptest.NewRecorder()
			Handler(c).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(recorder.Code, ShouldEqual, http.StatusOK)
			So(recorder.Body.String(), ShouldContainSubstring, `rig_experiment_state{state="Running"} 1`)
		})
	})

	Convey("Nil collector should ignore observations", t, func() {
		var c *Collector
		So(func() {
			c.ObserveConstraint("available_memory", false)
			c.ObserveApplicationState("openephys", "Failed")
			c.ObserveExperimentState("Aborted")
			c.ObserveAuxiliaryFailure("task")
			c.ObserveCommand("local", "OK", time.Second)
		}, ShouldNotPanic)
	})
}

func TestServe(t *testing.T) {
	Convey("Metrics should be served until context is done", t, func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)

		c := NewCollector()
		c.ObserveAuxiliaryFailure("start openephys acquisition")
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- Serve(ctx, listener, c) }()

		response, err := http.Get("http://" + listener.Addr().String() + "/metrics")
		So(err, ShouldBeNil)
		body, err := ioutil.ReadAll(response.Body)
		response.Body.Close()
		So(err, ShouldBeNil)
		So(strings.Contains(string(body), "rig_auxiliary_task_failures_total"), ShouldBeTrue)

		cancel()
		So(<-done, ShouldBeNil)
	})
}
