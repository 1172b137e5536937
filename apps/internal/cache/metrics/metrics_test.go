// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ Recorder = Noop{}
var _ Recorder = &Prometheus{}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("TestPrometheus: got err == %s, want err == nil", err)
	}

	p.Write("Account")
	p.Write("Account")
	p.Write("AccessToken")
	p.Remove()
	p.Notify(2)
	p.Notify(2)
	p.Notify(40)
	p.Dropped(3)
	p.Dropped(1)
	p.KeyRepair(RepairMoved)

	tests := []struct {
		desc string
		c    prometheus.Collector
		want float64
	}{
		{"account writes", p.writes.WithLabelValues("Account"), 2},
		{"access token writes", p.writes.WithLabelValues("AccessToken"), 1},
		{"removes", p.removes, 1},
		{"notifications", p.notifications, 3},
		{"dropped", p.dropped, 1},
		{"repairs", p.repairs.WithLabelValues(RepairMoved), 1},
		{"missing repairs", p.repairs.WithLabelValues(RepairMissing), 0},
	}
	for _, test := range tests {
		if got := testutil.ToFloat64(test.c); got != test.want {
			t.Errorf("TestPrometheus(%s): got %v, want %v", test.desc, got, test.want)
		}
	}

	// Callback counts are observed, not used as label values.
	n, err := testutil.GatherAndCount(reg, "msal_cache_notifications_total", "msal_cache_notification_callbacks")
	if err != nil {
		t.Fatalf("TestPrometheus: got err == %s, want err == nil", err)
	}
	if n != 2 {
		t.Errorf("TestPrometheus: got %d notification series, want 2", n)
	}
	if got := testutil.CollectAndCount(p.callbacks); got != 1 {
		t.Errorf("TestPrometheus: got %d callback histograms, want 1", got)
	}

	if _, err := NewPrometheus(reg); err == nil {
		t.Errorf("TestPrometheus: registering twice: got err == nil, want err != nil")
	}
}
