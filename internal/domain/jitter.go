package domain

import (
	"math"
	"time"
)

// Jitter is the per-card visual perturbation frozen into a task at creation or
// status change. It only moves the final drawn position, never the grid cell.
type Jitter struct {
	Rotation float64        `json:"rot" yaml:"rotation"`
	OffsetX  float64        `json:"offsetX" yaml:"offset_x"`
	OffsetY  float64        `json:"offsetY" yaml:"offset_y"`
	Float    FloatAnimation `json:"float" yaml:"float"`
}

// FloatAnimation describes the idle vertical oscillation of a card as a
// target, duration and repeat. Renderers loop it; nothing schedules it.
type FloatAnimation struct {
	Period    time.Duration `json:"period" yaml:"period"`
	Delay     time.Duration `json:"delay" yaml:"delay"`
	Amplitude float64       `json:"amplitude" yaml:"amplitude"`
}

// OffsetAt returns the vertical offset (negative is up) after elapsed time.
func (f FloatAnimation) OffsetAt(elapsed time.Duration) float64 {
	if f.Period <= 0 || f.Amplitude == 0 || elapsed < f.Delay {
		return 0
	}
	phase := float64(elapsed-f.Delay) / float64(f.Period)
	return -f.Amplitude * math.Sin(2*math.Pi*phase)
}
