// Package render owns the shared visual surface. Layers live in a handle
// table and are composited back-to-front into an RGBA frame. All mutation
// happens on the dispatch loop goroutine; the package does no locking of
// its own.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// LayerID is a handle into the surface's layer table.
type LayerID int

// None is the zero LayerID, never assigned to a live layer.
const None LayerID = 0

// Anchor positions a layer relative to its (x, y) point.
type Anchor int

const (
	AnchorNW Anchor = iota
	AnchorNE
	AnchorSW
	AnchorSE
	AnchorCenter
)

// TextStyle describes how a text pair is drawn. ShadowOffset 0 disables
// the shadow copy.
type TextStyle struct {
	Size         float64
	Color        color.Color
	ShadowColor  color.Color
	ShadowOffset float64
}

type layerKind int

const (
	kindText layerKind = iota
	kindImage
)

type layer struct {
	id   LayerID
	kind layerKind

	x, y   float64
	anchor Anchor

	// text layers
	text  string
	style TextStyle

	// image layers
	img   image.Image
	alpha float64

	// background layers sit below all foreground layers and stay visible
	// while the display is hidden (the screen itself is powered off).
	background bool
}

// Surface is the render target shared by every refresh task.
type Surface struct {
	width, height int

	nextID LayerID
	layers map[LayerID]*layer
	order  []LayerID // back-to-front

	hidden bool
	dirty  bool

	fonts *FontSet
	out   Output
}

// NewSurface creates an empty surface of the given size.
func NewSurface(width, height int, fonts *FontSet, out Output) *Surface {
	return &Surface{
		width:  width,
		height: height,
		layers: make(map[LayerID]*layer),
		fonts:  fonts,
		out:    out,
	}
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

func (s *Surface) add(l *layer) LayerID {
	s.nextID++
	l.id = s.nextID
	s.layers[l.id] = l

	if l.background {
		// Insert above existing background layers but below all foreground
		// layers, so an incoming fade overlay covers the old base without
		// covering text.
		idx := 0
		for idx < len(s.order) {
			if bl, ok := s.layers[s.order[idx]]; !ok || !bl.background {
				break
			}
			idx++
		}
		s.order = append(s.order, 0)
		copy(s.order[idx+1:], s.order[idx:])
		s.order[idx] = l.id
	} else {
		s.order = append(s.order, l.id)
	}

	s.dirty = true
	return l.id
}

// CreateText creates a foreground text layer.
func (s *Surface) CreateText(x, y float64, anchor Anchor, style TextStyle) LayerID {
	return s.add(&layer{kind: kindText, x: x, y: y, anchor: anchor, style: style})
}

// SetText replaces a text layer's content. The drawn shadow copy always
// carries the identical text: both are rendered from this single field, so
// no frame can show mismatched main and shadow content.
func (s *Surface) SetText(id LayerID, text string) {
	l, ok := s.layers[id]
	if !ok || l.kind != kindText {
		return
	}
	if l.text == text {
		return
	}
	l.text = text
	s.dirty = true
}

// Text returns a text layer's current content. Empty for unknown ids.
func (s *Surface) Text(id LayerID) string {
	if l, ok := s.layers[id]; ok {
		return l.text
	}
	return ""
}

// CreateImage creates a foreground image layer at full opacity.
func (s *Surface) CreateImage(img image.Image, x, y float64, anchor Anchor) LayerID {
	return s.add(&layer{kind: kindImage, img: img, x: x, y: y, anchor: anchor, alpha: 1})
}

// SetImage swaps an image layer's content in place.
func (s *Surface) SetImage(id LayerID, img image.Image) {
	l, ok := s.layers[id]
	if !ok || l.kind != kindImage {
		return
	}
	l.img = img
	s.dirty = true
}

// CreateBackground creates a background image layer covering the surface,
// starting at the given opacity.
func (s *Surface) CreateBackground(img image.Image, alpha float64) LayerID {
	return s.add(&layer{kind: kindImage, img: img, alpha: alpha, background: true})
}

// SetAlpha adjusts an image layer's opacity in [0, 1].
func (s *Surface) SetAlpha(id LayerID, alpha float64) {
	l, ok := s.layers[id]
	if !ok || l.kind != kindImage {
		return
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	l.alpha = alpha
	s.dirty = true
}

// Dispose removes a layer. Disposing an unknown or already-disposed id is
// a no-op, so there are no dangling handles after a fade commits.
func (s *Surface) Dispose(id LayerID) {
	if _, ok := s.layers[id]; !ok {
		return
	}
	delete(s.layers, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.dirty = true
}

// LayerCount returns the number of live layers.
func (s *Surface) LayerCount() int {
	return len(s.layers)
}

// BackgroundCount returns the number of live background layers.
func (s *Surface) BackgroundCount() int {
	n := 0
	for _, l := range s.layers {
		if l.background {
			n++
		}
	}
	return n
}

// SetForegroundHidden hides or shows all foreground layers. Background
// layers stay: the physical screen is dark while hidden.
func (s *Surface) SetForegroundHidden(hidden bool) {
	if s.hidden == hidden {
		return
	}
	s.hidden = hidden
	s.dirty = true
}

// ForegroundHidden reports the current foreground visibility.
func (s *Surface) ForegroundHidden() bool {
	return s.hidden
}

// Frame composites all layers into a fresh RGBA frame.
func (s *Surface) Frame() *image.RGBA {
	dc := gg.NewContext(s.width, s.height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	for _, id := range s.order {
		l := s.layers[id]
		if l == nil {
			continue
		}
		if s.hidden && !l.background {
			continue
		}
		switch l.kind {
		case kindImage:
			s.drawImage(dc, l)
		case kindText:
			s.drawText(dc, l)
		}
	}

	return dc.Image().(*image.RGBA)
}

// Flush publishes the current frame through the output if anything changed
// since the last flush.
func (s *Surface) Flush() {
	if !s.dirty || s.out == nil {
		return
	}
	s.dirty = false
	if err := s.out.Publish(s.Frame()); err != nil {
		log.Error().Err(err).Msg("Failed to publish frame")
	}
}

func (s *Surface) drawImage(dc *gg.Context, l *layer) {
	if l.img == nil || l.alpha <= 0 {
		return
	}

	x, y := int(l.x), int(l.y)
	b := l.img.Bounds()
	switch l.anchor {
	case AnchorNE:
		x -= b.Dx()
	case AnchorSW:
		y -= b.Dy()
	case AnchorSE:
		x -= b.Dx()
		y -= b.Dy()
	case AnchorCenter:
		x -= b.Dx() / 2
		y -= b.Dy() / 2
	}

	dst := dc.Image().(*image.RGBA)
	rect := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	if l.alpha >= 1 {
		xdraw.Draw(dst, rect, l.img, b.Min, xdraw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(l.alpha * 255)})
	xdraw.DrawMask(dst, rect, l.img, b.Min, mask, image.Point{}, xdraw.Over)
}

func (s *Surface) drawText(dc *gg.Context, l *layer) {
	if l.text == "" {
		return
	}

	face := s.fonts.Face(l.style.Size)
	dc.SetFontFace(face)

	ax, ay := anchorFractions(l.anchor)

	if l.style.ShadowOffset > 0 {
		c := l.style.ShadowColor
		if c == nil {
			c = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
		}
		dc.SetColor(c)
		dc.DrawStringWrapped(l.text, l.x+l.style.ShadowOffset, l.y+l.style.ShadowOffset,
			ax, ay, float64(s.width), 1.2, gg.AlignLeft)
	}

	c := l.style.Color
	if c == nil {
		c = color.White
	}
	dc.SetColor(c)
	dc.DrawStringWrapped(l.text, l.x, l.y, ax, ay, float64(s.width), 1.2, gg.AlignLeft)
}

func anchorFractions(a Anchor) (float64, float64) {
	switch a {
	case AnchorNE:
		return 1, 0
	case AnchorSW:
		return 0, 1
	case AnchorSE:
		return 1, 1
	case AnchorCenter:
		return 0.5, 0.5
	default:
		return 0, 0
	}
}
