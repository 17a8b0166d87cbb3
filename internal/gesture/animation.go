package gesture

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// springFPS is the step rate the return spring is integrated at.
const springFPS = 60

// AnimationKind names the release animation a card plays.
type AnimationKind string

const (
	AnimationNone   AnimationKind = ""
	AnimationExit   AnimationKind = "exit"
	AnimationReturn AnimationKind = "return"
)

// Animation describes a release animation declaratively. Renderers sample it
// with the elapsed time since release.
type Animation struct {
	Kind     AnimationKind `json:"kind"`
	From     float64       `json:"from"`
	Distance float64       `json:"distance,omitempty"`
	Rotation float64       `json:"rotation,omitempty"`
	Duration time.Duration `json:"duration"`

	Stiffness float64 `json:"stiffness,omitempty"`
	Damping   float64 `json:"damping,omitempty"`
}

// Done reports whether the animation has finished at elapsed.
func (a Animation) Done(elapsed time.Duration) bool {
	return a.Kind == AnimationNone || elapsed >= a.Duration
}

// OffsetAt returns the horizontal offset from the card's computed position.
func (a Animation) OffsetAt(elapsed time.Duration) float64 {
	switch a.Kind {
	case AnimationExit:
		return a.From - a.Distance*easeOut(a.progress(elapsed))
	case AnimationReturn:
		if elapsed >= a.Duration {
			return 0
		}
		return springOffset(a.From, a.Stiffness, a.Damping, elapsed)
	default:
		return 0
	}
}

// OpacityAt fades exiting cards out; returning cards stay opaque.
func (a Animation) OpacityAt(elapsed time.Duration) float64 {
	if a.Kind != AnimationExit {
		return 1
	}
	return 1 - a.progress(elapsed)
}

// RotationAt is the extra tilt of an exiting card, in degrees.
func (a Animation) RotationAt(elapsed time.Duration) float64 {
	if a.Kind != AnimationExit {
		return 0
	}
	return -a.Rotation * a.progress(elapsed)
}

func (a Animation) progress(elapsed time.Duration) float64 {
	if a.Duration <= 0 || elapsed >= a.Duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(a.Duration)
}

func easeOut(p float64) float64 {
	return 1 - (1-p)*(1-p)
}

// springOffset steps a unit-mass spring released from rest at from towards 0.
// Stiffness and damping map onto harmonica's angular frequency and damping
// ratio.
func springOffset(from, stiffness, damping float64, elapsed time.Duration) float64 {
	if stiffness <= 0 {
		return 0
	}
	omega := math.Sqrt(stiffness)
	spring := harmonica.NewSpring(harmonica.FPS(springFPS), omega, damping/(2*omega))
	frames := int(elapsed / (time.Second / springFPS))
	pos, vel := from, 0.0
	for range frames {
		pos, vel = spring.Update(pos, vel, 0)
	}
	return pos
}
