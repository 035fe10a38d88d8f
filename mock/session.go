package mock

import (
	"context"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var (
	_ redline.RoundRecorder = (*RoundRecorder)(nil)
	_ redline.RoundLoader   = (*RoundLoader)(nil)
	_ redline.DocumentStore = (*DocumentStore)(nil)
	_ redline.Observer      = (*Observer)(nil)
)

// RoundRecorder is a mock implementation of redline.RoundRecorder.
type RoundRecorder struct {
	RecordFn func(rec redline.RoundRecord) error
}

func (r *RoundRecorder) Record(rec redline.RoundRecord) error {
	return r.RecordFn(rec)
}

// RoundLoader is a mock implementation of redline.RoundLoader.
type RoundLoader struct {
	LoadFn func(path string) ([]redline.RoundRecord, error)
}

func (l *RoundLoader) Load(path string) ([]redline.RoundRecord, error) {
	return l.LoadFn(path)
}

// DocumentStore is a mock implementation of redline.DocumentStore.
type DocumentStore struct {
	SaveFn func(ctx context.Context, content string) error
}

func (s *DocumentStore) Save(ctx context.Context, content string) error {
	return s.SaveFn(ctx, content)
}

// Observer is a mock implementation of redline.Observer.
type Observer struct {
	RoundFinishedFn func(outcome redline.RoundOutcome)
	HunksResolvedFn func(resolved, unresolved int)
	DecidedFn       func(op redline.Operation, hunks int)
}

func (o *Observer) RoundFinished(outcome redline.RoundOutcome) {
	o.RoundFinishedFn(outcome)
}

func (o *Observer) HunksResolved(resolved, unresolved int) {
	o.HunksResolvedFn(resolved, unresolved)
}

func (o *Observer) Decided(op redline.Operation, hunks int) {
	o.DecidedFn(op, hunks)
}
