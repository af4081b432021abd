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
	"fmt"
	"time"

	"github.com/intelsdi-x/rig/pkg/apps"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Task is a unit of concurrent work of an experiment.
type Task func(ctx context.Context) error

// AuxiliaryTask is a best-effort coordination action run next to applications,
// started Delay after the applications.
type AuxiliaryTask struct {
	Name  string
	Delay time.Duration
	Run   Task
}

// Contained returns task which never fails. Error or panic of the wrapped task is
// logged once and reported to onFailure, if given. Cancellation is not a failure.
func Contained(name string, task Task, onFailure func(error)) Task {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = errors.Errorf("panic: %v", recovered)
			}
			if err == nil {
				return
			}

			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				logrus.Debugf("Auxiliary task %q cancelled", name)
			} else {
				logrus.Errorf("Auxiliary task %q failed: %v", name, err)
				if onFailure != nil {
					onFailure(err)
				}
			}
			err = nil
		}()
		return task(ctx)
	}
}

// Delayed returns task which waits delay on clk before running task.
// Cancellation of ctx during the wait returns ctx error without running task.
func Delayed(clk clock.Clock, delay time.Duration, task Task) Task {
	return func(ctx context.Context) error {
		if delay > 0 {
			timer := clk.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return task(ctx)
	}
}

// StartAcquisitionAfter returns auxiliary task starting acquisition of app after delay.
func StartAcquisitionAfter(delay time.Duration, app apps.Controllable) AuxiliaryTask {
	return AuxiliaryTask{
		Name:  fmt.Sprintf("start %s acquisition", app.Name()),
		Delay: delay,
		Run: func(ctx context.Context) error {
			if err := app.Controller().StartAcquisition(ctx); err != nil {
				return errors.Wrapf(err, "failed to start %s acquisition", app.Name())
			}
			logrus.Infof("Started %s acquisition", app.Name())
			return nil
		},
	}
}
