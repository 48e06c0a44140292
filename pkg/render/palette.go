package render

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

// ErrMissingPalette is returned when a PALETTE COLOR dataset lacks the
// lookup table attributes
var ErrMissingPalette = errors.New("render: missing palette color lookup table")

// PaletteLUT maps sample values to RGB triples. Samples below FirstMapped
// clamp to the first entry, samples past the end to the last.
type PaletteLUT struct {
	R, G, B     []uint8
	FirstMapped int
}

// Lookup resolves one sample to its RGB triple
func (p *PaletteLUT) Lookup(v int32) (r, g, b uint8) {
	idx := int(v) - p.FirstMapped
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.R) {
		idx = len(p.R) - 1
	}
	return p.R[idx], p.G[idx], p.B[idx]
}

// PaletteFromDataset builds the lookup table from the Red/Green/Blue
// Palette Color Lookup Table Descriptor and Data attributes.
func PaletteFromDataset(ds *dicom.Dataset) (*PaletteLUT, error) {
	r, first, err := paletteChannel(ds, tag.RedPaletteColorLookupTableDescriptor, tag.RedPaletteColorLookupTableData)
	if err != nil {
		return nil, err
	}
	g, _, err := paletteChannel(ds, tag.GreenPaletteColorLookupTableDescriptor, tag.GreenPaletteColorLookupTableData)
	if err != nil {
		return nil, err
	}
	b, _, err := paletteChannel(ds, tag.BluePaletteColorLookupTableDescriptor, tag.BluePaletteColorLookupTableData)
	if err != nil {
		return nil, err
	}
	if len(g) != len(r) || len(b) != len(r) {
		return nil, fmt.Errorf("render: palette channels differ in length (%d/%d/%d)", len(r), len(g), len(b))
	}
	return &PaletteLUT{R: r, G: g, B: b, FirstMapped: first}, nil
}

// paletteChannel decodes one channel's descriptor (entries, first mapped
// value, bits per entry) and data. A declared entry count of 0 means 65536.
func paletteChannel(ds *dicom.Dataset, descTag, dataTag dicom.Tag) ([]uint8, int, error) {
	desc, ok := ds.GetFloats(descTag)
	if !ok || len(desc) < 3 {
		return nil, 0, fmt.Errorf("descriptor %s: %w", descTag, ErrMissingPalette)
	}
	entries := int(desc[0])
	if entries == 0 {
		entries = 65536
	}
	first := int(desc[1])
	bits := int(desc[2])
	if bits != 8 && bits != 16 {
		return nil, 0, fmt.Errorf("render: palette entries of %d bits are not supported", bits)
	}

	raw, ok := ds.GetBytes(dataTag)
	if !ok {
		return nil, 0, fmt.Errorf("data %s: %w", dataTag, ErrMissingPalette)
	}

	out := make([]uint8, entries)
	switch bits {
	case 8:
		if len(raw) < entries {
			return nil, 0, fmt.Errorf("render: palette data has %d bytes, want %d", len(raw), entries)
		}
		copy(out, raw[:entries])
	case 16:
		if len(raw) < entries*2 {
			return nil, 0, fmt.Errorf("render: palette data has %d bytes, want %d", len(raw), entries*2)
		}
		order := ds.TransferSyntax.ByteOrder()
		for i := 0; i < entries; i++ {
			out[i] = uint8(order.Uint16(raw[i*2:]) >> 8)
		}
	}
	return out, first, nil
}
