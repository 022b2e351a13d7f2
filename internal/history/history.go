// Package history persists finished verification runs. It is a separate
// collaborator of the pipeline: a failed write is logged and counted but
// never changes the result returned to the caller.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

// ErrNotFound is returned when a run id is unknown
var ErrNotFound = errors.New("run not found")

// Record is one stored verification run
type Record struct {
	ID         string                 `json:"id"`
	CreatedAt  time.Time              `json:"created_at"`
	Mode       model.Mode             `json:"mode"`
	Category   string                 `json:"category"`
	ClaimCount int                    `json:"claim_count"`
	Counts     map[model.Verdict]int  `json:"verdict_counts"`
	Run        *model.VerificationRun `json:"run"`
}

// NewRecord summarizes run for storage
func NewRecord(run *model.VerificationRun) Record {
	counts := make(map[model.Verdict]int, 4)
	for _, v := range model.AllVerdicts() {
		counts[v] = 0
	}
	for _, r := range run.Results {
		counts[r.Verdict]++
	}

	return Record{
		ID:         run.ID,
		CreatedAt:  run.CreatedAt,
		Mode:       run.Mode,
		Category:   run.Category,
		ClaimCount: len(run.Claims),
		Counts:     counts,
		Run:        run,
	}
}

// Store saves and loads records
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns up to limit records, newest first
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open creates the store named by cfg.Backend. "none" and "" return a nil
// store, which disables history.
func Open(ctx context.Context, cfg model.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("history: redis backend needs redis_addr")
		}
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Prefix, cfg.TTL)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("history: postgres backend needs a dsn")
		}
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("history: unsupported backend %q", cfg.Backend)
	}
}
