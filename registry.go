package gomcp

import (
	"fmt"
	"sort"
)

// DuplicatePolicy controls what happens when a capability is added under a
// key that is already registered. The policy is fixed when the registry is
// constructed.
type DuplicatePolicy int

const (
	// DuplicateWarn logs a warning and replaces the existing entry.
	DuplicateWarn DuplicatePolicy = iota
	// DuplicateError rejects the registration with a RegistrationConflictError.
	// Whether that aborts startup is the caller's decision; the library never
	// terminates the process.
	DuplicateError
	// DuplicateReplace replaces the existing entry without logging.
	DuplicateReplace
	// DuplicateIgnore keeps the existing entry and discards the new one.
	DuplicateIgnore
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateWarn:
		return "warn"
	case DuplicateError:
		return "error"
	case DuplicateReplace:
		return "replace"
	case DuplicateIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// RegistrationConflictError reports a duplicate key rejected under
// DuplicateError.
type RegistrationConflictError struct {
	Kind string
	Key  string
}

func (e *RegistrationConflictError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Kind, e.Key)
}

// registry is the keyed store for one capability kind. It is populated during
// the registration phase and read-only once serving starts, so lookups take
// no lock; the Server guards the mutation window.
type registry[T any] struct {
	kind    string
	policy  DuplicatePolicy
	keyOf   func(T) string
	entries map[string]T
	logger  Logger
}

func newRegistry[T any](kind string, policy DuplicatePolicy, keyOf func(T) string, logger Logger) *registry[T] {
	return &registry[T]{
		kind:    kind,
		policy:  policy,
		keyOf:   keyOf,
		entries: make(map[string]T),
		logger:  logger,
	}
}

func (r *registry[T]) add(entry T) error {
	key := r.keyOf(entry)
	if _, exists := r.entries[key]; exists {
		switch r.policy {
		case DuplicateWarn:
			r.logger.WithFields(map[string]interface{}{
				r.kind: key,
			}).Warn(fmt.Sprintf("%s already registered, replacing", r.kind))
		case DuplicateError:
			return &RegistrationConflictError{Kind: r.kind, Key: key}
		case DuplicateReplace:
		case DuplicateIgnore:
			return nil
		}
	}
	r.entries[key] = entry
	return nil
}

func (r *registry[T]) get(key string) (T, bool) {
	entry, ok := r.entries[key]
	return entry, ok
}

// list returns every entry sorted by key.
func (r *registry[T]) list() []T {
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]T, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, r.entries[key])
	}
	return entries
}

func (r *registry[T]) len() int {
	return len(r.entries)
}
