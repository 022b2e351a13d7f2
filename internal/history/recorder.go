package history

import (
	"context"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

// Recorder writes finished runs to a store under its own deadline. It is
// detached from the caller's cancellation so a run that already returned
// is still recorded.
type Recorder struct {
	store   Store
	timeout time.Duration
}

// NewRecorder creates a recorder; a nil store records nothing
func NewRecorder(store Store, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{store: store, timeout: timeout}
}

// Record saves run
func (r *Recorder) Record(ctx context.Context, run *model.VerificationRun) error {
	if r == nil || r.store == nil || run == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	return r.store.Save(ctx, NewRecord(run))
}
