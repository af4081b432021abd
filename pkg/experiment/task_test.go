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
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestContained(t *testing.T) {
	Convey("Contained task should never fail", t, func() {
		hook := test.NewGlobal()
		defer hook.Reset()

		var reported []error
		onFailure := func(err error) { reported = append(reported, err) }

		Convey("Error should be logged once and reported", func() {
			task := Contained("failing", func(context.Context) error {
				return &command.TransportError{Address: "localhost:1", Command: command.New("start"), Err: errors.New("refused")}
			}, onFailure)

			So(task(context.Background()), ShouldBeNil)
			So(reported, ShouldHaveLength, 1)
			So(errorEntries(hook, "failing"), ShouldEqual, 1)
		})

		Convey("Panic should be recovered", func() {
			task := Contained("panicking", func(context.Context) error {
				panic("boom")
			}, onFailure)

			So(task(context.Background()), ShouldBeNil)
			So(reported, ShouldHaveLength, 1)
			So(reported[0].Error(), ShouldContainSubstring, "boom")
		})

		Convey("Cancellation should not be reported as failure", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			task := Contained("cancelled", func(ctx context.Context) error { return ctx.Err() }, onFailure)

			So(task(ctx), ShouldBeNil)
			So(reported, ShouldBeEmpty)
			So(errorEntries(hook, "cancelled"), ShouldEqual, 0)
		})

		Convey("Success should not be reported", func() {
			So(Contained("fine", func(context.Context) error { return nil }, onFailure)(context.Background()), ShouldBeNil)
			So(reported, ShouldBeEmpty)
		})
	})
}

func TestDelayed(t *testing.T) {
	Convey("With fake clock", t, func() {
		fakeClock := clocktesting.NewFakeClock(time.Now())
		var called int32
		task := Delayed(fakeClock, 2*time.Second, func(context.Context) error {
			atomic.AddInt32(&called, 1)
			return nil
		})

		Convey("Task should run only after the delay elapses", func() {
			done := make(chan error, 1)
			go func() { done <- task(context.Background()) }()

			So(waitFor(fakeClock.HasWaiters), ShouldBeTrue)
			fakeClock.Step(time.Second)
			So(atomic.LoadInt32(&called), ShouldEqual, 0)
			fakeClock.Step(time.Second)

			So(<-done, ShouldBeNil)
			So(atomic.LoadInt32(&called), ShouldEqual, 1)
		})

		Convey("Cancellation during the delay should skip the task", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- task(ctx) }()

			So(waitFor(fakeClock.HasWaiters), ShouldBeTrue)
			cancel()
			So(<-done, ShouldEqual, context.Canceled)
			So(atomic.LoadInt32(&called), ShouldEqual, 0)
		})
	})
}

func TestStartAcquisitionAfter(t *testing.T) {
	Convey("Auxiliary task should start acquisition of controlled application", t, func() {
		controller := &fakeController{}
		app := newFakeApp("ephys", func(context.Context) error { return nil })
		app.controller = controller

		task := StartAcquisitionAfter(2*time.Second, app)
		So(task.Delay, ShouldEqual, 2*time.Second)
		So(task.Name, ShouldContainSubstring, "ephys")
		So(task.Run(context.Background()), ShouldBeNil)
		So(controller.started, ShouldEqual, 1)

		controller.err = &apps.NotReadyError{Application: "ephys", State: apps.Created}
		err := task.Run(context.Background())
		var notReady *apps.NotReadyError
		So(errors.As(err, &notReady), ShouldBeTrue)
	})
}

func errorEntries(hook *test.Hook, substring string) int {
	count := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && strings.Contains(entry.Message, substring) {
			count++
		}
	}
	return count
}

func waitFor(condition func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

type fakeController struct {
	mutex   sync.Mutex
	started int
	err     error
}

func (c *fakeController) StartAcquisition(context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.err != nil {
		return c.err
	}
	c.started++
	return nil
}

func (c *fakeController) StopAcquisition(context.Context) error {
	return nil
}

// fakeApp is an application which run is a Go function.
type fakeApp struct {
	name        string
	run         func(ctx context.Context) error
	validateErr error
	controller  apps.Controller

	mutex  sync.Mutex
	state  apps.State
	runs   int
	stops  int
	cancel context.CancelFunc
}

func newFakeApp(name string, run func(ctx context.Context) error) *fakeApp {
	return &fakeApp{name: name, run: run}
}

func (a *fakeApp) Name() string { return a.name }

func (a *fakeApp) Kind() apps.Kind {
	if a.controller != nil {
		return apps.KindControlled
	}
	return apps.KindGeneric
}

func (a *fakeApp) Controller() apps.Controller { return a.controller }

func (a *fakeApp) Command() command.Command { return command.New(a.name) }

func (a *fakeApp) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.validateErr != nil {
		return a.validateErr
	}
	a.state = apps.Validated
	return nil
}

func (a *fakeApp) Run(ctx context.Context) error {
	a.mutex.Lock()
	a.runs++
	a.state = apps.Running
	ctx, a.cancel = context.WithCancel(ctx)
	a.mutex.Unlock()

	err := a.run(ctx)

	a.mutex.Lock()
	defer a.mutex.Unlock()
	if err != nil {
		a.state = apps.Failed
	} else {
		a.state = apps.Completed
	}
	return err
}

func (a *fakeApp) Stop() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.stops++
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}

func (a *fakeApp) State() apps.State {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.state
}

func (a *fakeApp) Runs() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.runs
}
