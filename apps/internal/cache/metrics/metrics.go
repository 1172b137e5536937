// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package metrics reports what the cache storage engine is doing. The engine calls a
// Recorder on every mutation; Noop is used when nobody is listening.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Key repair outcomes.
const (
	RepairMoved     = "moved"
	RepairUnchanged = "unchanged"
	RepairMissing   = "missing"
)

// Recorder receives cache events.
type Recorder interface {
	// Write is called when an entry of kind is stored.
	Write(kind string)
	// Remove is called when an entry is removed.
	Remove()
	// Notify is called once per change notification with the number of callbacks run.
	Notify(callbacks int)
	// Dropped is called when building the bucketed view excluded n entries.
	Dropped(n int)
	// KeyRepair is called with the outcome of a credential key update.
	KeyRepair(outcome string)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Write(string)     {}
func (Noop) Remove()          {}
func (Noop) Notify(int)       {}
func (Noop) Dropped(int)      {}
func (Noop) KeyRepair(string) {}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	writes        *prometheus.CounterVec
	removes       prometheus.Counter
	notifications prometheus.Counter
	callbacks     prometheus.Histogram
	dropped       prometheus.Gauge
	repairs       *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Entries stored, by kind.",
		}, []string{"kind"}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "removes_total",
			Help:      "Entries removed.",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "notifications_total",
			Help:      "Change notifications.",
		}),
		callbacks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "notification_callbacks",
			Help:      "Callbacks run per change notification.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "unbucketed_entries",
			Help:      "Entries left out of the last bucketed view.",
		}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msal",
			Subsystem: "cache",
			Name:      "key_repairs_total",
			Help:      "Credential key updates, by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{p.writes, p.removes, p.notifications, p.callbacks, p.dropped, p.repairs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Write(kind string) {
	p.writes.WithLabelValues(kind).Inc()
}

func (p *Prometheus) Remove() {
	p.removes.Inc()
}

func (p *Prometheus) Notify(callbacks int) {
	p.notifications.Inc()
	p.callbacks.Observe(float64(callbacks))
}

func (p *Prometheus) Dropped(n int) {
	p.dropped.Set(float64(n))
}

func (p *Prometheus) KeyRepair(outcome string) {
	p.repairs.WithLabelValues(outcome).Inc()
}
