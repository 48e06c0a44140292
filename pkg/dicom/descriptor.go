package dicom

import (
	"fmt"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

// Photometric interpretations the renderer understands
const (
	Monochrome1  = "MONOCHROME1"
	Monochrome2  = "MONOCHROME2"
	RGB          = "RGB"
	PaletteColor = "PALETTE COLOR"
)

// ImageDescriptor is a read-only view over the image pixel attributes of a
// fully parsed dataset. Missing optional attributes take the standard
// defaults; missing required ones fail construction.
type ImageDescriptor struct {
	Rows                      int
	Columns                   int
	Frames                    int
	BitsAllocated             int
	BitsStored                int
	HighBit                   int
	PixelRepresentation       int // 0 unsigned, 1 two's complement
	SamplesPerPixel           int
	PhotometricInterpretation string
	PlanarConfiguration       int
	RescaleSlope              float64
	RescaleIntercept          float64
	WindowCenters             []float64
	WindowWidths              []float64
	VOILUTFunction            string
}

// Describe derives the image descriptor from a dataset. Rows, Columns and
// BitsAllocated are required; everything else defaults per the standard.
func Describe(ds *Dataset) (*ImageDescriptor, error) {
	d := &ImageDescriptor{
		Frames:                    1,
		SamplesPerPixel:           1,
		PhotometricInterpretation: Monochrome2,
		RescaleSlope:              1,
		VOILUTFunction:            "LINEAR",
	}

	var ok bool
	if d.Rows, ok = ds.GetInt(tag.Rows); !ok {
		return nil, missingAttribute("Rows", tag.Rows)
	}
	if d.Columns, ok = ds.GetInt(tag.Columns); !ok {
		return nil, missingAttribute("Columns", tag.Columns)
	}
	if d.BitsAllocated, ok = ds.GetInt(tag.BitsAllocated); !ok {
		return nil, missingAttribute("BitsAllocated", tag.BitsAllocated)
	}
	if d.Rows <= 0 || d.Columns <= 0 {
		return nil, &AttributeError{Name: "Rows/Columns", Tag: tag.Rows,
			Err: fmt.Errorf("invalid dimensions %dx%d: %w", d.Columns, d.Rows, ErrUnrecognizedFormat)}
	}

	d.BitsStored = d.BitsAllocated
	if v, ok := ds.GetInt(tag.BitsStored); ok && v > 0 {
		d.BitsStored = v
	}
	d.HighBit = d.BitsStored - 1
	if v, ok := ds.GetInt(tag.HighBit); ok {
		d.HighBit = v
	}
	if v, ok := ds.GetInt(tag.PixelRepresentation); ok {
		d.PixelRepresentation = v
	}
	if v, ok := ds.GetInt(tag.SamplesPerPixel); ok && v > 0 {
		d.SamplesPerPixel = v
	}
	if v, ok := ds.GetInt(tag.NumberOfFrames); ok && v > 0 {
		d.Frames = v
	}
	if s, ok := ds.GetString(tag.PhotometricInterpretation); ok && s != "" {
		d.PhotometricInterpretation = s
	}
	if v, ok := ds.GetInt(tag.PlanarConfiguration); ok {
		d.PlanarConfiguration = v
	}
	if v, ok := ds.GetFloat(tag.RescaleSlope); ok && v != 0 {
		d.RescaleSlope = v
	}
	if v, ok := ds.GetFloat(tag.RescaleIntercept); ok {
		d.RescaleIntercept = v
	}
	if vs, ok := ds.GetFloats(tag.WindowCenter); ok {
		d.WindowCenters = vs
	}
	if vs, ok := ds.GetFloats(tag.WindowWidth); ok {
		d.WindowWidths = vs
	}
	if s, ok := ds.GetString(tag.VOILUTFunction); ok && s != "" {
		d.VOILUTFunction = s
	}
	return d, nil
}

// Signed reports whether samples are two's-complement
func (d *ImageDescriptor) Signed() bool {
	return d.PixelRepresentation == 1
}

// Monochrome reports whether this is a single-sample grayscale image
func (d *ImageDescriptor) Monochrome() bool {
	return d.PhotometricInterpretation == Monochrome1 || d.PhotometricInterpretation == Monochrome2
}

// BytesPerSample returns the stored element size in bytes
func (d *ImageDescriptor) BytesPerSample() int {
	return (d.BitsAllocated + 7) / 8
}

// FrameSize returns the native byte length of one frame
func (d *ImageDescriptor) FrameSize() int {
	return d.Rows * d.Columns * d.SamplesPerPixel * d.BytesPerSample()
}

// DeclaredWindow returns the dataset's first window center/width pair
func (d *ImageDescriptor) DeclaredWindow() (center, width float64, ok bool) {
	if len(d.WindowCenters) == 0 || len(d.WindowWidths) == 0 {
		return 0, 0, false
	}
	return d.WindowCenters[0], d.WindowWidths[0], true
}
