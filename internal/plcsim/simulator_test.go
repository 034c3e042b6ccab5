package plcsim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagro/supervisory/internal/models"
)

const sampleYAML = `
variables:
  - address: DB10.DBD0
    name: Temperatura Forno
    kind: analog
    unit: "°C"
    initial: 40
    min: 0
    max: 120
    step: 2
  - address: M10.0
    name: Bomba Dosadora
    kind: digital
    initial: true
`

func TestParse(t *testing.T) {
	defs, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	s := New(defs, Options{Seed: 1})
	vars := s.Snapshot()
	assert.Equal(t, 40.0, vars[0].Value)
	assert.Equal(t, true, vars[1].Value)
	assert.Equal(t, "°C", vars[0].Unit)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "variables: []"},
		{"bad kind", "variables:\n  - {address: A, name: a, kind: float}"},
		{"missing address", "variables:\n  - {name: a, kind: digital}"},
		{"max below min", "variables:\n  - {address: A, name: a, kind: analog, min: 10, max: 5}"},
		{"not yaml", "variables: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_DuplicateAddress(t *testing.T) {
	_, err := Parse([]byte("variables:\n  - {address: A, name: a, kind: digital}\n  - {address: A, name: b, kind: digital}"))
	assert.True(t, errors.Is(err, ErrDuplicateAddress))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultDefinitionsAreValid(t *testing.T) {
	defs := DefaultDefinitions()
	for _, d := range defs {
		assert.NoError(t, validate.Struct(d), d.Address)
	}
	s := New(defs, Options{Seed: 7})
	for _, v := range s.Snapshot() {
		switch v.Kind {
		case models.VariableDigital:
			_, ok := v.Digital()
			assert.True(t, ok)
		case models.VariableAnalog:
			_, ok := v.Analog()
			assert.True(t, ok)
		}
	}
}

func TestSimulator_LookupAndSearch(t *testing.T) {
	s := New(DefaultDefinitions(), Options{Seed: 1})

	v, ok := s.Lookup("M0.0")
	require.True(t, ok)
	assert.Equal(t, "Bomba Recalque", v.Name)

	_, ok = s.Lookup("X9.9")
	assert.False(t, ok)

	assert.Len(t, s.Search(""), len(DefaultDefinitions()))
	hits := s.Search("temperatura")
	assert.Len(t, hits, 2)
	assert.Len(t, s.Search("db1.dbd12"), 1)
}

func TestSimulator_SnapshotIsCopy(t *testing.T) {
	s := New(DefaultDefinitions(), Options{Seed: 1})
	snap := s.Snapshot()
	snap[0].Value = -1.0
	assert.NotEqual(t, -1.0, s.Snapshot()[0].Value)
}

func TestSimulator_SameSeedSameSequence(t *testing.T) {
	a := New(DefaultDefinitions(), Options{Seed: 42})
	b := New(DefaultDefinitions(), Options{Seed: 42})
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Tick(), b.Tick())
	}
	assert.Equal(t, uint64(20), a.Ticks())
}

func TestSimulator_AnalogStaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("analog values stay within bounds", prop.ForAll(
		func(seed int64, steps int) bool {
			defs := DefaultDefinitions()
			s := New(defs, Options{Seed: seed})
			for i := 0; i < steps; i++ {
				s.Tick()
			}
			for i, v := range s.Snapshot() {
				if v.Kind != models.VariableAnalog {
					continue
				}
				f, ok := v.Analog()
				if !ok || f < defs[i].Min || f > defs[i].Max {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1<<40),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

type recorder struct {
	mu    sync.Mutex
	calls int
}

func (r *recorder) Record(_ context.Context, _ []models.PlcVariable, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSimulator_RunRecordsUntilCancelled(t *testing.T) {
	s := New(DefaultDefinitions(), Options{Seed: 3})
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond, rec)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, s.Ticks(), uint64(3))
}
