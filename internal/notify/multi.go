package notify

import (
	"context"
	"errors"
)

// MultiBackend fans a notification out to several backends.
type MultiBackend struct {
	backends []Backend
}

// NewMultiBackend combines backends. Permission is granted when any of
// them grants; delivery goes to every backend.
func NewMultiBackend(backends ...Backend) *MultiBackend {
	return &MultiBackend{backends: backends}
}

// RequestPermission asks every backend. It is denied only when all deny,
// and errors only when no backend answered.
func (m *MultiBackend) RequestPermission(ctx context.Context) (bool, error) {
	var (
		errs     []error
		answered bool
	)
	for _, b := range m.backends {
		granted, err := b.RequestPermission(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if granted {
			return true, nil
		}
		answered = true
	}
	if answered || len(errs) == 0 {
		return false, nil
	}
	return false, errors.Join(errs...)
}

// Deliver sends content to every backend and joins their errors.
func (m *MultiBackend) Deliver(ctx context.Context, content Content) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Deliver(ctx, content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
