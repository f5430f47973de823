package verify

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// SVGRenderer draws the code as an SVG image with per-glyph jitter and a few
// noise strokes. Deployments wanting raster captchas can swap the Renderer.
type SVGRenderer struct {
	Width  int
	Height int
}

// ContentType is the MIME type of the rendered payload.
func (r *SVGRenderer) ContentType() string { return "image/svg+xml" }

// Render implements Renderer.
func (r *SVGRenderer) Render(code string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("verify: empty captcha code")
	}
	width := r.Width
	if width <= 0 {
		width = 60 + 30*len(code)
	}
	height := r.Height
	if height <= 0 {
		height = 60
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#f1f5f9"/>`, width, height)

	for i := 0; i < 4; i++ {
		x1 := rand.IntN(width)
		y1 := rand.IntN(height)
		x2 := rand.IntN(width)
		y2 := rand.IntN(height)
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#94a3b8" stroke-width="1"/>`, x1, y1, x2, y2)
	}

	step := float64(width-40) / float64(len(code))
	for i, ch := range code {
		x := 20 + float64(i)*step + rand.Float64()*6
		y := float64(height)/2 + 8 + rand.Float64()*8 - 4
		rotate := rand.Float64()*40 - 20
		fmt.Fprintf(&b,
			`<text x="%.1f" y="%.1f" font-family="monospace" font-size="28" fill="#1e293b" transform="rotate(%.1f %.1f %.1f)">%s</text>`,
			x, y, rotate, x, y, string(ch))
	}

	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}
