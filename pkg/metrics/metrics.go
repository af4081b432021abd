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

// Package metrics exposes experiment progress as Prometheus metrics.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Namespace prefixes every metric name.
const Namespace = "rig"

// Collector records constraint checks, state transitions, auxiliary task failures
// and command round trips in its own registry.
// Methods of nil Collector are no-ops.
type Collector struct {
	constraintChecks  *prometheus.CounterVec
	applicationStates *prometheus.CounterVec
	experimentState   *prometheus.GaugeVec
	auxiliaryFailures *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewCollector creates Collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.constraintChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "constraint_checks_total",
			Help:      "Total number of resource constraint evaluations",
		},
		[]string{"constraint", "result"},
	)

	c.applicationStates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "application_state_transitions_total",
			Help:      "Total number of application state transitions",
		},
		[]string{"application", "state"},
	)

	// One series per state; the current one is set to 1.
	c.experimentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "experiment_state",
			Help:      "Current state of the experiment",
		},
		[]string{"state"},
	)

	c.auxiliaryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auxiliary_task_failures_total",
			Help:      "Total number of contained auxiliary task failures",
		},
		[]string{"task"},
	)

	c.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of commands sent through a runner",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"runner", "status"},
	)

	c.registry.MustRegister(
		c.constraintChecks,
		c.applicationStates,
		c.experimentState,
		c.auxiliaryFailures,
		c.commandDuration,
	)
	return c
}

// Registry returns the registry metrics are registered in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveConstraint counts evaluation of constraint.
func (c *Collector) ObserveConstraint(name string, satisfied bool) {
	if c == nil {
		return
	}
	result := "satisfied"
	if !satisfied {
		result = "violated"
	}
	c.constraintChecks.WithLabelValues(name, result).Inc()
}

// ObserveApplicationState counts transition of application to state.
func (c *Collector) ObserveApplicationState(application, state string) {
	if c == nil {
		return
	}
	c.applicationStates.WithLabelValues(application, state).Inc()
}

// ObserveExperimentState marks state as the current one.
func (c *Collector) ObserveExperimentState(state string) {
	if c == nil {
		return
	}
	c.experimentState.Reset()
	c.experimentState.WithLabelValues(state).Set(1)
}

// ObserveAuxiliaryFailure counts failure of auxiliary task.
func (c *Collector) ObserveAuxiliaryFailure(task string) {
	if c == nil {
		return
	}
	c.auxiliaryFailures.WithLabelValues(task).Inc()
}

// ObserveCommand records round trip of command sent through runner.
func (c *Collector) ObserveCommand(runner, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.commandDuration.WithLabelValues(runner, status).Observe(duration.Seconds())
}

// Handler returns router serving metrics of c at /metrics.
func Handler(c *Collector) http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return router
}

// Serve serves metrics of c on listener until ctx is done.
func Serve(ctx context.Context, listener net.Listener, c *Collector) error {
	server := &http.Server{Handler: Handler(c)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Failed to stop metrics server: %v", err)
		}
	}()

	logrus.Debugf("Metrics served on %s", listener.Addr())
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "metrics server on %s failed", listener.Addr())
	}
	return nil
}
