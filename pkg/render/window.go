// Package render maps decoded DICOM sample grids to displayable 8-bit
// RGBA frames via window/level contrast control.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
)

var (
	// ErrInvalidWindowWidth is returned for window widths <= 0
	ErrInvalidWindowWidth = errors.New("render: invalid window width")
	// ErrUnsupportedImage is returned for photometric interpretations or
	// sample layouts the renderer has no capability for
	ErrUnsupportedImage = errors.New("render: unsupported image layout")
)

// Window holds user-adjustable VOI window parameters. Width must be > 0
// for a valid transform.
type Window struct {
	Center float64
	Width  float64
}

// Valid reports whether the window can drive the linear transform
func (w Window) Valid() bool {
	return w.Width > 0
}

// Intensity maps a rescaled value to a display intensity. The mapping is
// closed-open: a value exactly at center−width/2 yields 0, values from
// center+width/2 up yield 255, and the span in between is linear.
// Callers must check Valid first.
func (w Window) Intensity(x float64) uint8 {
	low := w.Center - w.Width/2
	t := (x - low) * 256 / w.Width
	if t <= 0 {
		return 0
	}
	if t >= 256 {
		return 255
	}
	v := int(t)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// DefaultWindow derives the fallback window from the full observed sample
// range, rescale applied. Width is always >= 1.
func DefaultWindow(g *dicom.SampleGrid, desc *dicom.ImageDescriptor) Window {
	min, max := g.MinMax()
	lo := float64(min)*desc.RescaleSlope + desc.RescaleIntercept
	hi := float64(max)*desc.RescaleSlope + desc.RescaleIntercept
	if lo > hi {
		lo, hi = hi, lo
	}
	width := hi - lo
	if width < 1 {
		width = 1
	}
	return Window{Center: (hi + lo) / 2, Width: width}
}

// DeclaredWindow returns the dataset's declared window, if any
func DeclaredWindow(desc *dicom.ImageDescriptor) (Window, bool) {
	c, w, ok := desc.DeclaredWindow()
	if !ok {
		return Window{}, false
	}
	return Window{Center: c, Width: w}, true
}

// Frame is an owned RGBA byte buffer ready for a drawing surface
type Frame struct {
	Width  int
	Height int
	Pix    []byte // rows*cols*4, RGBA
}

// Option adjusts rendering capabilities
type Option func(*options)

type options struct {
	palette      *PaletteLUT
	colorConvert func(a, b, c int32) (r, g, bl uint8)
}

// WithPalette supplies the lookup table for PALETTE COLOR images
func WithPalette(p *PaletteLUT) Option {
	return func(o *options) { o.palette = p }
}

// WithColorConverter supplies the colorspace conversion for YBR variants
func WithColorConverter(fn func(y, cb, cr int32) (r, g, b uint8)) Option {
	return func(o *options) { o.colorConvert = fn }
}

// Render transforms one sample grid into an RGBA frame. Monochrome images
// go through the rescale + window transform; three-sample color images
// bypass windowing and are scaled per channel; palette images resolve each
// sample through the lookup table.
func Render(g *dicom.SampleGrid, desc *dicom.ImageDescriptor, win Window, opts ...Option) (*Frame, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case desc.Monochrome() && g.SamplesPerPixel == 1:
		return renderMonochrome(g, desc, win)
	case desc.PhotometricInterpretation == dicom.PaletteColor && g.SamplesPerPixel == 1:
		if o.palette == nil {
			return nil, fmt.Errorf("%s without a palette: %w", desc.PhotometricInterpretation, ErrUnsupportedImage)
		}
		return renderPalette(g, o.palette), nil
	case g.SamplesPerPixel == 3:
		if strings.HasPrefix(desc.PhotometricInterpretation, "YBR") {
			if o.colorConvert == nil {
				return nil, fmt.Errorf("%s without a colorspace converter: %w", desc.PhotometricInterpretation, ErrUnsupportedImage)
			}
			return renderColor(g, desc, o.colorConvert), nil
		}
		return renderColor(g, desc, nil), nil
	default:
		return nil, fmt.Errorf("%s with %d sample(s) per pixel: %w",
			desc.PhotometricInterpretation, g.SamplesPerPixel, ErrUnsupportedImage)
	}
}

// renderMonochrome applies rescale and window through a lookup table over
// the stored value domain, then expands to grayscale RGBA. MONOCHROME1
// inverts the display scale.
func renderMonochrome(g *dicom.SampleGrid, desc *dicom.ImageDescriptor, win Window) (*Frame, error) {
	if !win.Valid() {
		return nil, fmt.Errorf("width %v: %w", win.Width, ErrInvalidWindowWidth)
	}
	if fn := desc.VOILUTFunction; fn != "" && fn != "LINEAR" {
		return nil, fmt.Errorf("VOI LUT function %q: %w", fn, ErrUnsupportedImage)
	}

	// samples are masked to bits-stored, so the whole domain fits one LUT
	domainMin := int32(0)
	if desc.Signed() {
		domainMin = -(int32(1) << (desc.BitsStored - 1))
	}
	size := int32(1) << desc.BitsStored
	invert := desc.PhotometricInterpretation == dicom.Monochrome1

	lut := make([]uint8, size)
	for i := range lut {
		x := float64(domainMin+int32(i))*desc.RescaleSlope + desc.RescaleIntercept
		y := win.Intensity(x)
		if invert {
			y = 255 - y
		}
		lut[i] = y
	}

	f := newFrame(g.Columns, g.Rows)
	for i, v := range g.Data {
		idx := v - domainMin
		if idx < 0 {
			idx = 0
		} else if idx >= size {
			idx = size - 1
		}
		y := lut[idx]
		f.Pix[i*4+0] = y
		f.Pix[i*4+1] = y
		f.Pix[i*4+2] = y
		f.Pix[i*4+3] = 0xFF
	}
	return f, nil
}

// renderColor passes three-sample pixels through per channel, scaling
// wider-than-8-bit samples down and clamping to 0..255. convert, when
// non-nil, maps the raw triple through a colorspace conversion first.
func renderColor(g *dicom.SampleGrid, desc *dicom.ImageDescriptor, convert func(a, b, c int32) (r, gr, bl uint8)) *Frame {
	shift := uint(0)
	if desc.BitsStored > 8 {
		shift = uint(desc.BitsStored - 8)
	}
	clamp := func(v int32) uint8 {
		v >>= shift
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}

	f := newFrame(g.Columns, g.Rows)
	pixels := g.Rows * g.Columns
	for p := 0; p < pixels; p++ {
		s0 := g.Data[p*3]
		s1 := g.Data[p*3+1]
		s2 := g.Data[p*3+2]
		var r, gr, b uint8
		if convert != nil {
			r, gr, b = convert(s0, s1, s2)
		} else {
			r, gr, b = clamp(s0), clamp(s1), clamp(s2)
		}
		f.Pix[p*4+0] = r
		f.Pix[p*4+1] = gr
		f.Pix[p*4+2] = b
		f.Pix[p*4+3] = 0xFF
	}
	return f
}

// renderPalette resolves each sample through the RGB lookup table
func renderPalette(g *dicom.SampleGrid, p *PaletteLUT) *Frame {
	f := newFrame(g.Columns, g.Rows)
	for i, v := range g.Data {
		r, gr, b := p.Lookup(v)
		f.Pix[i*4+0] = r
		f.Pix[i*4+1] = gr
		f.Pix[i*4+2] = b
		f.Pix[i*4+3] = 0xFF
	}
	return f
}

func newFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}
