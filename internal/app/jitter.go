package app

import (
	"math/rand/v2"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

// JitterBounds are the symmetric and ranged limits jitter is drawn from.
type JitterBounds struct {
	Rotation     float64
	OffsetX      float64
	OffsetY      float64
	PeriodMin    time.Duration
	PeriodMax    time.Duration
	DelayMax     time.Duration
	AmplitudeMin float64
	AmplitudeMax float64
}

// DefaultJitterBounds returns the bounds the board uses out of the box.
func DefaultJitterBounds() JitterBounds {
	return JitterBounds{
		Rotation:     3,
		OffsetX:      5,
		OffsetY:      10,
		PeriodMin:    3 * time.Second,
		PeriodMax:    5 * time.Second,
		DelayMax:     2 * time.Second,
		AmplitudeMin: 3,
		AmplitudeMax: 6,
	}
}

// JitterGenerator draws uniform jitter from its bounds. Two generators built
// with the same seed produce the same sequence. It is not safe for concurrent
// use; Store only calls it with its lock held.
type JitterGenerator struct {
	bounds JitterBounds
	rng    *rand.Rand
}

// NewJitterGenerator seeds a PCG source for bounds.
func NewJitterGenerator(bounds JitterBounds, seed uint64) *JitterGenerator {
	return &JitterGenerator{
		bounds: bounds,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next draws one jitter value.
func (g *JitterGenerator) Next() domain.Jitter {
	b := g.bounds
	return domain.Jitter{
		Rotation: g.symmetric(b.Rotation),
		OffsetX:  g.symmetric(b.OffsetX),
		OffsetY:  g.symmetric(b.OffsetY),
		Float: domain.FloatAnimation{
			Period:    g.duration(b.PeriodMin, b.PeriodMax),
			Delay:     g.duration(0, b.DelayMax),
			Amplitude: g.between(b.AmplitudeMin, b.AmplitudeMax),
		},
	}
}

func (g *JitterGenerator) symmetric(limit float64) float64 {
	return g.between(-limit, limit)
}

func (g *JitterGenerator) between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *JitterGenerator) duration(lo, hi time.Duration) time.Duration {
	return time.Duration(g.between(float64(lo), float64(hi))).Round(time.Millisecond)
}
