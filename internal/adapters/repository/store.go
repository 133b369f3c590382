// Package repository persists quiz sessions behind a single Store interface
// with in-memory, badger and sqlite implementations.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/pkg/metrics"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Store provides read/write access to session records. Put replaces the
// whole record; concurrent writers on one id are last-write-wins.
type Store interface {
	// Get returns the session with id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Session, error)

	// Put inserts or replaces the session.
	Put(ctx context.Context, s model.Session) error

	// Count returns the number of stored sessions.
	Count(ctx context.Context) int

	// Close releases the backend.
	Close() error
}

// Open builds the store for backend and wraps it with latency metrics.
// path is the badger directory or the sqlite file and is ignored for memory.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	var (
		inner Store
		err   error
	)
	switch backend {
	case BackendMemory, "":
		inner = NewMemoryStore()
	case BackendBadger:
		inner, err = OpenBadger(path)
	case BackendSQLite:
		inner, err = OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrUnknownBackend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(ctx, inner, opts...), nil
}

func encode(s model.Session) ([]byte, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("empty id: %w", ErrInvalidSession)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.Answers == nil {
		s.Answers = map[string]model.Answer{}
	}
	return s, nil
}

// instrumented records per-operation latency and keeps the record gauge fresh.
type instrumented struct {
	Store
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// Instrument wraps s with store metrics and starts the background record
// count updater, which stops on Close or when ctx is done.
func Instrument(ctx context.Context, s Store, opts ...Option) Store {
	w := &instrumented{
		Store:                 s,
		metricsUpdateInterval: 10 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.startMetricsUpdater(ctx)
	return w
}

func (w *instrumented) Get(ctx context.Context, id string) (model.Session, error) {
	start := time.Now()
	s, err := w.Store.Get(ctx, id)
	metrics.RecordStoreLatency("get", float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError("get")
	}
	return s, err
}

func (w *instrumented) Put(ctx context.Context, s model.Session) error {
	start := time.Now()
	err := w.Store.Put(ctx, s)
	metrics.RecordStoreLatency("put", float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError("put")
	}
	return err
}

func (w *instrumented) Close() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	return w.Store.Close()
}

func (w *instrumented) startMetricsUpdater(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreRecords(w.Store.Count(ctx))
			}
		}
	}()
}
