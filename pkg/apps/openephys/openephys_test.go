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
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/intelsdi-x/rig/pkg/command"
	"github.com/intelsdi-x/rig/pkg/executor/mocks"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
)

// fakeGUI mimics HTTP API of Open Ephys GUI.
type fakeGUI struct {
	sync.Mutex
	mode      Mode
	directory string
}

func (g *fakeGUI) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/status", g.getStatus).Methods("GET")
	router.HandleFunc("/api/status", g.putStatus).Methods("PUT")
	router.HandleFunc("/api/recording", g.putRecording).Methods("PUT")
	return router
}

func (g *fakeGUI) getStatus(w http.ResponseWriter, r *http.Request) {
	g.Lock()
	defer g.Unlock()
	json.NewEncoder(w).Encode(statusMessage{Mode: g.mode})
}

func (g *fakeGUI) putStatus(w http.ResponseWriter, r *http.Request) {
	var status statusMessage
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if status.Mode != Idle && status.Mode != Acquire && status.Mode != Record {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	g.Lock()
	defer g.Unlock()
	g.mode = status.Mode
	json.NewEncoder(w).Encode(statusMessage{Mode: g.mode})
}

func (g *fakeGUI) putRecording(w http.ResponseWriter, r *http.Request) {
	var recording recordingMessage
	if err := json.NewDecoder(r.Body).Decode(&recording); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g.Lock()
	defer g.Unlock()
	g.directory = recording.ParentDirectory
	w.WriteHeader(http.StatusOK)
}

func TestClient(t *testing.T) {
	Convey("With fake Open Ephys GUI", t, func() {
		gui := &fakeGUI{mode: Idle}
		server := httptest.NewServer(gui.router())
		defer server.Close()

		client := NewClient("OpenEphys", strings.TrimPrefix(server.URL, "http://"), time.Second, nil)
		ctx := context.Background()

		Convey("Mode should be read", func() {
			mode, err := client.Mode(ctx)
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, Idle)
		})

		Convey("Acquisition should be started and stopped", func() {
			So(client.StartAcquisition(ctx), ShouldBeNil)
			So(gui.mode, ShouldEqual, Acquire)
			So(client.StartRecording(ctx), ShouldBeNil)
			So(gui.mode, ShouldEqual, Record)
			So(client.StopAcquisition(ctx), ShouldBeNil)
			So(gui.mode, ShouldEqual, Idle)
		})

		Convey("Recording directory should be set", func() {
			So(client.SetRecordingDirectory(ctx, "/data/session"), ShouldBeNil)
			So(gui.directory, ShouldEqual, "/data/session")
		})

		Convey("Rejected request should be an error", func() {
			_, err := client.SetMode(ctx, Mode("DANCE"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "400")
		})
	})

	Convey("With nothing listening on control address", t, func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		address := listener.Addr().String()
		So(listener.Close(), ShouldBeNil)

		client := NewClient("OpenEphys", address, time.Second, nil)
		err = client.StartAcquisition(context.Background())

		Convey("Control command should fail with NotReadyError", func() {
			var notReady *apps.NotReadyError
			So(errors.As(err, &notReady), ShouldBeTrue)
		})
	})

	Convey("With GUI which does not answer in time", t, func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		client := NewClient("OpenEphys", server.URL, 100*time.Millisecond, nil)
		err := client.StartAcquisition(context.Background())

		Convey("Control command should fail with TransportError", func() {
			var transportError *command.TransportError
			So(errors.As(err, &transportError), ShouldBeTrue)
		})
	})
}

func TestOpenEphys(t *testing.T) {
	Convey("While using Open Ephys", t, func() {
		gui := &fakeGUI{mode: Idle}
		server := httptest.NewServer(gui.router())
		defer server.Close()

		config := DefaultConfig()
		So(config.ControlAddress, ShouldEqual, "localhost:37497")
		config.Executable = "/opt/open-ephys/open-ephys.exe"
		config.SignalChain = "/srv/example.xml"
		config.ControlAddress = server.URL
		config.SkipValidation = true

		Convey("Command should run GUI with signal chain", func() {
			cmd := New(new(mocks.Executor), config).Command()
			So(cmd.Name(), ShouldEqual, "/opt/open-ephys/open-ephys.exe")
			So(cmd.Args(), ShouldResemble, []string{"/srv/example.xml"})
		})

		Convey("Application should be controllable", func() {
			app := New(new(mocks.Executor), config)
			So(app.Kind(), ShouldEqual, apps.KindControlled)
			So(apps.ControllerOf(app), ShouldNotBeNil)
		})

		Convey("Control command before start should fail with NotReadyError without contacting GUI", func() {
			app := New(new(mocks.Executor), config)
			err := app.Controller().StartAcquisition(context.Background())
			var notReady *apps.NotReadyError
			So(errors.As(err, &notReady), ShouldBeTrue)
			So(notReady.State, ShouldEqual, apps.Created)
			So(gui.mode, ShouldEqual, Idle)
		})

		Convey("Control command while running should reach GUI", func() {
			release := make(chan struct{})
			handle := new(mocks.TaskHandle)
			handle.On("Wait", time.Duration(0)).Run(func(mock.Arguments) { <-release }).Return(true)
			handle.On("ExitCode").Return(0, nil)
			handle.On("Clean").Return(nil)
			handle.On("Address").Return("127.0.0.1")
			handle.On("StdoutFile").Return(nil, errors.New("no file"))
			handle.On("StderrFile").Return(nil, errors.New("no file"))

			mockedExecutor := new(mocks.Executor)
			mockedExecutor.On("Name").Return("mocked")
			mockedExecutor.On("Execute", "/opt/open-ephys/open-ephys.exe", "/srv/example.xml").Return(handle, nil)

			app := New(mockedExecutor, config)
			errs := make(chan error, 1)
			go func() { errs <- app.Run(context.Background()) }()

			deadline := time.Now().Add(5 * time.Second)
			for app.State() != apps.Running && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			So(app.State(), ShouldEqual, apps.Running)

			So(app.Controller().StartAcquisition(context.Background()), ShouldBeNil)
			mode, err := app.Client().Mode(context.Background())
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, Acquire)

			close(release)
			So(<-errs, ShouldBeNil)
			So(app.State(), ShouldEqual, apps.Completed)
		})
	})
}
