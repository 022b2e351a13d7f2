package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("Expected error registering twice, got nil")
	}
}

func TestCollector_Claims(t *testing.T) {
	c := newCollector(t)

	c.ClaimTransition(model.StateExtracted, model.StateRetrieving)
	c.ClaimTransition(model.StateExtracted, model.StateRetrieving)
	c.SourceDegraded(model.OriginWeb)
	c.ClaimResolved(model.ModeSingle, model.VerdictTrue, 2*time.Second)

	if got := testutil.ToFloat64(c.transitions.WithLabelValues("extracted", "retrieving")); got != 2 {
		t.Errorf("Expected 2 transitions, got %v", got)
	}
	if got := testutil.ToFloat64(c.degraded.WithLabelValues("web")); got != 1 {
		t.Errorf("Expected 1 degraded web source, got %v", got)
	}
	if got := testutil.ToFloat64(c.verdicts.WithLabelValues("single", "true")); got != 1 {
		t.Errorf("Expected 1 true verdict, got %v", got)
	}
}

func TestCollector_RunStatus(t *testing.T) {
	tests := []struct {
		desc string
		err  error
		want string
	}{
		{desc: "success", err: nil, want: "ok"},
		{desc: "invalid request", err: fmt.Errorf("%w: mode", model.ErrInvalidRequest), want: "invalid"},
		{desc: "extraction", err: &model.ExtractionError{Reason: "empty text"}, want: "extraction"},
		{desc: "canceled", err: context.Canceled, want: "canceled"},
		{desc: "other", err: errors.New("boom"), want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := newCollector(t)
			c.RunCompleted(model.ModeDebate, 3, time.Second, tt.err)
			if got := testutil.ToFloat64(c.runs.WithLabelValues("debate", tt.want)); got != 1 {
				t.Errorf("Expected status %s counted once, got %v", tt.want, got)
			}
		})
	}
}

func TestCollector_PersistFailed(t *testing.T) {
	c := newCollector(t)
	c.PersistFailed()
	c.PersistFailed()
	if got := testutil.ToFloat64(c.persistFails); got != 2 {
		t.Errorf("Expected 2 persist failures, got %v", got)
	}
}
