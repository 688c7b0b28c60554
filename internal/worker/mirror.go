// Package worker keeps a secondary copy of the ledger (typically a Google
// Sheets tab) in step with the primary repository.
package worker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// Interval between periodic resyncs; events trigger extra ones (default: 5m)
	Interval time.Duration
}

// DefaultMirrorConfig returns sensible defaults
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{Interval: 5 * time.Minute}
}

// SyncResult summarises one mirror pass.
type SyncResult struct {
	Entries int
	Skipped int
	Written bool // false when the target already held the same entries
}

// Mirror copies the full primary ledger into the target on every sync. A
// whole-ledger copy makes event loss, duplicates and reordering harmless.
type Mirror struct {
	source storage.Repository
	target storage.Repository
	config MirrorConfig
	logger *log.Logger

	mu   sync.Mutex
	last []core.Entry // what the target was last written with; nil before the first write
}

func NewMirror(source, target storage.Repository, config MirrorConfig, logger *log.Logger) *Mirror {
	if config.Interval <= 0 {
		config.Interval = DefaultMirrorConfig().Interval
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Mirror{
		source: source,
		target: target,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Sync reads the primary ledger and writes it to the target unless nothing
// changed since the previous write.
func (m *Mirror) Sync(ctx context.Context) (SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.source.Load(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load primary ledger: %w", err)
	}
	entries, _ := core.Backfill(res.Entries)
	out := SyncResult{Entries: len(entries), Skipped: len(res.Skipped)}

	if m.last != nil && slices.Equal(m.last, entries) {
		return out, nil
	}
	if err := m.target.Save(ctx, entries); err != nil {
		return out, fmt.Errorf("write mirror: %w", err)
	}
	m.last = entries
	out.Written = true

	m.logger.InfoContext(ctx, "Mirror updated",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(entries),
		"skipped", len(res.Skipped))
	return out, nil
}

// HandleEvent is an amqp.Handler. The event only says that something changed;
// the mirror is rebuilt from the primary ledger.
func (m *Mirror) HandleEvent(ctx context.Context, msg *amqp.EntryEvent) error {
	m.logger.DebugContext(ctx, "Received entry event",
		log.FieldEventID, msg.EventID,
		log.FieldEventType, msg.Type,
		log.FieldEntryID, msg.Entry.ID)
	_, err := m.Sync(ctx)
	return err
}

// Run syncs once immediately and then every Interval until ctx is done.
// Failed passes are logged and retried on the next tick.
func (m *Mirror) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.logger.InfoContext(ctx, "Mirror worker started", "interval", m.config.Interval.String())
	for {
		if _, err := m.Sync(ctx); err != nil && ctx.Err() == nil {
			m.logger.ErrorContext(ctx, "Mirror sync failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "Mirror worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}
