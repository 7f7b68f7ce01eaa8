package render

// InputHandler turns viewport events into camera changes
type InputHandler struct {
	camera *Camera
	viewW  int
	viewH  int

	dragging bool
	anchorX  float64
	anchorY  float64
}

// NewInputHandler creates a handler for a viewport of the given size
func NewInputHandler(camera *Camera, viewW, viewH int) *InputHandler {
	return &InputHandler{camera: camera, viewW: viewW, viewH: viewH}
}

// PointerPress records the drag anchor
func (h *InputHandler) PointerPress(x, y float64) {
	h.dragging = true
	h.anchorX, h.anchorY = x, y
}

// PointerDrag pans by the distance moved since the anchor and moves the anchor.
// A drag without a preceding press is ignored.
func (h *InputHandler) PointerDrag(x, y float64) {
	if !h.dragging {
		return
	}
	dx, dy := x-h.anchorX, y-h.anchorY
	h.anchorX, h.anchorY = x, y
	if dx == 0 && dy == 0 {
		return
	}
	h.camera.Pan(dx, dy, h.viewW, h.viewH)
}

// PointerRelease clears the drag anchor
func (h *InputHandler) PointerRelease() {
	h.dragging = false
}

// Dragging reports whether a drag is in progress
func (h *InputHandler) Dragging() bool {
	return h.dragging
}

// Scroll zooms by the wheel delta
func (h *InputHandler) Scroll(delta float64) {
	if delta == 0 {
		return
	}
	h.camera.ZoomBy(delta)
}

// Resize records a new viewport size. The projection is recomputed on the next frame.
func (h *InputHandler) Resize(w, ht int) {
	h.viewW, h.viewH = w, ht
}

// Viewport returns the current viewport size
func (h *InputHandler) Viewport() (int, int) {
	return h.viewW, h.viewH
}

// PointerState is the pointer input sampled for one frame. Position is in
// viewport pixels; the button flags describe the primary button.
type PointerState struct {
	X, Y         float64
	JustPressed  bool
	JustReleased bool
	Held         bool
	Wheel        float64
	Reset        bool
}

// Apply feeds one frame of input to the handler. A press wins over a
// release in the same frame, and a held button drags.
func (h *InputHandler) Apply(s PointerState) {
	if s.Reset {
		h.camera.Reset()
	}

	switch {
	case s.JustPressed:
		h.PointerPress(s.X, s.Y)
	case s.JustReleased:
		h.PointerRelease()
	case s.Held:
		h.PointerDrag(s.X, s.Y)
	}

	h.Scroll(s.Wheel)
}
