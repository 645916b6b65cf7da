package status

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned when a target status is outside the entity's
// legal set. Handlers surface it as a 400.
var ErrInvalidStatus = errors.New("invalid status")

// Effect runs the side effect attached to a transition.
type Effect func(ctx context.Context, from, to string) error

// Rule pairs a transition predicate with its side effect. Effects run only
// when the predicate matches the (from, to) pair being applied.
type Rule struct {
	When func(from, to string) bool
	Run  Effect
}

// Machine is the shared guarded status mutation used by orders, adoption
// requests, and vet consultations: a fixed set of legal target values plus
// an entity-specific side-effect table.
type Machine struct {
	Entity  string
	Allowed []string
	Rules   []Rule
}

// Validate rejects any target outside the legal set.
func (m *Machine) Validate(to string) error {
	for _, s := range m.Allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a valid %s status", ErrInvalidStatus, to, m.Entity)
}

// Transition validates the target and runs every matching side effect in
// order. The caller persists the new status itself after Transition returns
// nil; a failed effect aborts the whole mutation.
func (m *Machine) Transition(ctx context.Context, from, to string) error {
	if err := m.Validate(to); err != nil {
		return err
	}
	for _, r := range m.Rules {
		if r.When(from, to) {
			if err := r.Run(ctx, from, to); err != nil {
				return fmt.Errorf("%s transition %s -> %s: %w", m.Entity, from, to, err)
			}
		}
	}
	return nil
}
