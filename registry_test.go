package gomcp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	key   string
	value int
}

func newTestRegistry(policy DuplicatePolicy) *registry[testEntry] {
	return newRegistry("entry", policy, func(e testEntry) string { return e.key }, NewNullLogger())
}

func TestRegistryDuplicatePolicies(t *testing.T) {
	tests := []struct {
		name      string
		policy    DuplicatePolicy
		wantErr   bool
		wantValue int
	}{
		{
			name:      "warn replaces the entry",
			policy:    DuplicateWarn,
			wantValue: 2,
		},
		{
			name:      "error rejects the entry",
			policy:    DuplicateError,
			wantErr:   true,
			wantValue: 1,
		},
		{
			name:      "replace overwrites silently",
			policy:    DuplicateReplace,
			wantValue: 2,
		},
		{
			name:      "ignore keeps the first entry",
			policy:    DuplicateIgnore,
			wantValue: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(tt.policy)
			require.NoError(t, r.add(testEntry{key: "a", value: 1}))

			err := r.add(testEntry{key: "a", value: 2})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			entry, ok := r.get("a")
			require.True(t, ok)
			assert.Equal(t, tt.wantValue, entry.value)
			assert.Equal(t, 1, r.len())
		})
	}
}

func TestRegistryConflictError(t *testing.T) {
	r := newTestRegistry(DuplicateError)
	require.NoError(t, r.add(testEntry{key: "echo"}))

	err := r.add(testEntry{key: "echo"})
	require.Error(t, err)
	assert.Equal(t, "duplicate entry: echo", err.Error())

	var conflict *RegistrationConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "entry", conflict.Kind)
	assert.Equal(t, "echo", conflict.Key)
}

func TestRegistryListSorted(t *testing.T) {
	r := newTestRegistry(DuplicateError)
	for _, key := range []string{"delta", "alpha", "charlie", "bravo"} {
		require.NoError(t, r.add(testEntry{key: key}))
	}

	entries := r.list()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, keys)
}

func TestRegistryGetMissing(t *testing.T) {
	r := newTestRegistry(DuplicateWarn)
	_, ok := r.get("missing")
	assert.False(t, ok)
}

func TestDuplicatePolicyString(t *testing.T) {
	assert.Equal(t, "warn", DuplicateWarn.String())
	assert.Equal(t, "error", DuplicateError.String())
	assert.Equal(t, "replace", DuplicateReplace.String())
	assert.Equal(t, "ignore", DuplicateIgnore.String())
	assert.Equal(t, "unknown(42)", DuplicatePolicy(42).String())
}
