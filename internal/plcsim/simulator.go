package plcsim

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/models"
)

// DefaultToggleProbability is the per-tick chance that a digital tag flips.
const DefaultToggleProbability = 0.05

// Recorder receives every snapshot produced by Run.
type Recorder interface {
	Record(ctx context.Context, vars []models.PlcVariable, at time.Time) error
}

// Options tunes a Simulator.
type Options struct {
	Seed              int64
	ToggleProbability float64
	Logger            zerolog.Logger
}

// Simulator owns the current values of every tag.
type Simulator struct {
	mu     sync.RWMutex
	defs   []Definition
	vars   []models.PlcVariable
	rng    *rand.Rand
	toggle float64
	ticks  uint64
	logger zerolog.Logger
}

// New creates a simulator seeded from opts. A zero seed uses the clock.
func New(defs []Definition, opts Options) *Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	toggle := opts.ToggleProbability
	if toggle <= 0 || toggle > 1 {
		toggle = DefaultToggleProbability
	}
	s := &Simulator{
		defs:   append([]Definition(nil), defs...),
		vars:   make([]models.PlcVariable, len(defs)),
		rng:    rand.New(rand.NewSource(seed)),
		toggle: toggle,
		logger: opts.Logger,
	}
	for i, d := range defs {
		s.vars[i] = d.variable()
	}
	return s
}

// Snapshot returns a copy of the current tag values.
func (s *Simulator) Snapshot() []models.PlcVariable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PlcVariable(nil), s.vars...)
}

// Lookup returns a single tag by address.
func (s *Simulator) Lookup(address string) (models.PlcVariable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FindVariable(s.vars, address)
}

// Search returns tags whose "name (address)" contains query, case-insensitively.
func (s *Simulator) Search(query string) []models.PlcVariable {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PlcVariable, 0, len(s.vars))
	for _, v := range s.vars {
		if q == "" || strings.Contains(strings.ToLower(v.SearchText()), q) {
			out = append(out, v)
		}
	}
	return out
}

// Ticks returns how many steps have run.
func (s *Simulator) Ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Tick advances every tag by one step: analog values random-walk within
// [min, max], digital values flip with the toggle probability.
func (s *Simulator) Tick() []models.PlcVariable {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.PlcVariable, len(s.vars))
	for i, v := range s.vars {
		d := s.defs[i]
		switch v.Kind {
		case models.VariableDigital:
			on, _ := v.Digital()
			if s.rng.Float64() < s.toggle {
				on = !on
			}
			v.Value = on
		case models.VariableAnalog:
			cur, ok := v.Analog()
			if !ok {
				cur = d.Min
			}
			delta := (s.rng.Float64()*2 - 1) * d.Step
			v.Value = clamp(cur+delta, d.Min, d.Max)
		}
		next[i] = v
	}
	s.vars = next
	s.ticks++
	return append([]models.PlcVariable(nil), next...)
}

// Run ticks every interval until ctx is done, handing each snapshot to rec
// when it is non-nil. Recorder failures are logged and do not stop the loop.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, rec Recorder) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Int("variables", len(s.defs)).Dur("interval", interval).Msg("plc simulator started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("plc simulator stopped")
			return
		case now := <-ticker.C:
			vars := s.Tick()
			if rec == nil {
				continue
			}
			if err := rec.Record(ctx, vars, now); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("failed to record plc snapshot")
			}
		}
	}
}
