package render

// MaxDisplay is the display cap, in logical pixels, for the larger side of an image.
const MaxDisplay = 400

// Scale fits width x height inside MaxDisplay, preserving the aspect ratio.
// Images whose larger side is already within the cap are returned unchanged.
// A square image takes the width branch.
func Scale(width, height int) (float64, float64) {
	w, h := float64(width), float64(height)
	switch {
	case width >= height && width > MaxDisplay:
		rate := w / MaxDisplay
		return w / rate, h / rate
	case height > width && height > MaxDisplay:
		rate := h / MaxDisplay
		return w / rate, h / rate
	default:
		return w, h
	}
}
