package render

import "platewatch/internal/aggregate"

// Target is anything that can draw a dashboard view.
type Target interface {
	Render(view aggregate.View)
}

// Multi renders the same view to every target, in order.
type Multi []Target

// Render implements dashboard.Renderer.
func (m Multi) Render(view aggregate.View) {
	for _, t := range m {
		t.Render(view)
	}
}
