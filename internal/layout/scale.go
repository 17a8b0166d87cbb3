package layout

// Viewport turns a viewport height into the uniform layout scale.
type Viewport struct {
	ReferenceHeight float64
	MinScale        float64
	MaxScale        float64
}

// DefaultViewport scales against an 1100px reference height.
func DefaultViewport() Viewport {
	return Viewport{ReferenceHeight: 1100, MinScale: 0.45, MaxScale: 1}
}

// Scale returns height/ReferenceHeight clamped to [MinScale, MaxScale].
func (v Viewport) Scale(height float64) float64 {
	if v.ReferenceHeight <= 0 || height <= 0 {
		return v.MaxScale
	}
	s := height / v.ReferenceHeight
	if s < v.MinScale {
		return v.MinScale
	}
	if s > v.MaxScale {
		return v.MaxScale
	}
	return s
}
