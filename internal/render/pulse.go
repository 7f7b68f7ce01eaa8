package render

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"roadviz/internal/metrics"

	"github.com/rs/zerolog"
)

// PulseSource produces the node size pulse for a point in time
type PulseSource interface {
	Name() string
	Pulse(t time.Time) (float64, error)
	Close() error
}

// Phase returns the wall-clock seconds of t reduced modulo 2π. Reducing
// in float64 first keeps single-precision kernels accurate for epoch times.
func Phase(t time.Time) float64 {
	const period = 2 * math.Pi
	whole := math.Mod(float64(t.Unix()), period)
	frac := float64(t.Nanosecond()) / 1e9
	return math.Mod(whole+frac, period)
}

// ClampPulse limits v to [-1, 1]; NaN becomes 0
func ClampPulse(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// CPUPulse evaluates sin(t) directly
type CPUPulse struct{}

// Name returns "cpu"
func (CPUPulse) Name() string { return "cpu" }

// Pulse returns sin of the wall-clock seconds of t
func (CPUPulse) Pulse(t time.Time) (float64, error) {
	return ClampPulse(math.Sin(Phase(t))), nil
}

// Close is a no-op
func (CPUPulse) Close() error { return nil }

// FallbackPulse runs an accelerated source and switches to the CPU for
// good after its first failure.
type FallbackPulse struct {
	primary PulseSource
	cpu     CPUPulse
	failed  atomic.Bool
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewFallbackPulse wraps primary
func NewFallbackPulse(primary PulseSource, log zerolog.Logger, m *metrics.Metrics) *FallbackPulse {
	return &FallbackPulse{primary: primary, log: log, metrics: m}
}

// Name returns the name of the source currently in use
func (f *FallbackPulse) Name() string {
	if f.failed.Load() {
		return f.cpu.Name()
	}
	return f.primary.Name()
}

// Degraded reports whether the CPU path took over
func (f *FallbackPulse) Degraded() bool {
	return f.failed.Load()
}

// Pulse never returns an error
func (f *FallbackPulse) Pulse(t time.Time) (float64, error) {
	if !f.failed.Load() {
		v, err := f.primary.Pulse(t)
		if err == nil {
			return ClampPulse(v), nil
		}
		f.degrade(err)
	}
	return f.cpu.Pulse(t)
}

func (f *FallbackPulse) degrade(err error) {
	if !f.failed.CompareAndSwap(false, true) {
		return
	}
	f.metrics.PulseFallback()
	f.log.Warn().Err(err).Str("source", f.primary.Name()).Msg("Accelerated pulse failed, using CPU")
	if cerr := f.primary.Close(); cerr != nil {
		f.log.Debug().Err(cerr).Msg("Failed to release accelerated pulse")
	}
}

// Close releases the accelerated source unless it was already dropped
func (f *FallbackPulse) Close() error {
	if f.failed.Swap(true) {
		return nil
	}
	return f.primary.Close()
}

// SelectPulseSource returns the accelerated source when enabled and the
// probe succeeds, and CPUPulse otherwise.
func SelectPulseSource(enabled bool, probe func() (PulseSource, error), log zerolog.Logger, m *metrics.Metrics) PulseSource {
	if !enabled || probe == nil {
		log.Debug().Msg("Using CPU pulse")
		return CPUPulse{}
	}

	src, err := probe()
	if err == nil && src == nil {
		err = fmt.Errorf("%w: probe returned no source", ErrPulseUnavailable)
	}
	if err != nil {
		m.PulseFallback()
		log.Warn().Err(err).Msg("Accelerated pulse unavailable, using CPU")
		return CPUPulse{}
	}

	log.Info().Str("source", src.Name()).Msg("Using accelerated pulse")
	return NewFallbackPulse(src, log, m)
}

// EncodePulse16 packs a pulse in [-1, 1] into two 8-bit channels, the
// layout produced by the accelerated kernel.
func EncodePulse16(v float64) (hi, lo uint8) {
	u := (ClampPulse(v) + 1) / 2 * 255
	h := math.Floor(u)
	l := math.Round((u - h) * 255)
	if l > 255 {
		l = 255
	}
	return uint8(h), uint8(l)
}

// DecodePulse16 is the inverse of EncodePulse16
func DecodePulse16(hi, lo uint8) float64 {
	u := (float64(hi) + float64(lo)/255) / 255
	return ClampPulse(u*2 - 1)
}
