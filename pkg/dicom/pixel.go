package dicom

import (
	"encoding/binary"
	"fmt"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

// SampleFormat enumerates the supported stored-sample layouts. Only 8 and
// 16 bit allocations, signed or unsigned, are in scope.
type SampleFormat int

const (
	Uint8 SampleFormat = iota
	Int8
	Uint16
	Int16
)

func (f SampleFormat) String() string {
	switch f {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	}
	return "unknown"
}

// Signed reports whether the format is two's complement
func (f SampleFormat) Signed() bool {
	return f == Int8 || f == Int16
}

// Size returns the format's element size in bytes
func (f SampleFormat) Size() int {
	if f == Uint8 || f == Int8 {
		return 1
	}
	return 2
}

// SampleGrid is one frame of decoded samples in row-major order,
// interleaved per pixel when SamplesPerPixel > 1. Values are stored
// widened to int32, which exactly represents every in-scope format.
type SampleGrid struct {
	Rows            int
	Columns         int
	SamplesPerPixel int
	Format          SampleFormat
	Data            []int32
}

// At returns the sample for channel c of pixel (x, y)
func (g *SampleGrid) At(x, y, c int) int32 {
	return g.Data[(y*g.Columns+x)*g.SamplesPerPixel+c]
}

// MinMax returns the smallest and largest samples in the grid
func (g *SampleGrid) MinMax() (min, max int32) {
	if len(g.Data) == 0 {
		return 0, 0
	}
	min, max = g.Data[0], g.Data[0]
	for _, v := range g.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

// Bytes re-encodes the grid into its native byte layout. For grids decoded
// from data whose high bit sits at bits-stored−1 (the common case) this is
// the inverse of decoding: Bytes(order) equals the original frame slice.
func (g *SampleGrid) Bytes(order binary.ByteOrder) []byte {
	size := g.Format.Size()
	out := make([]byte, len(g.Data)*size)
	for i, v := range g.Data {
		if size == 1 {
			out[i] = byte(uint8(v))
		} else {
			order.PutUint16(out[i*2:], uint16(v))
		}
	}
	return out
}

// DecodeFrames extracts and decodes the pixel-data element of a fully
// parsed dataset into one sample grid per frame. The dataset must already
// hold every attribute pixel decoding depends on; attributes and pixel
// data may appear in any file order since the store is indexed first.
func DecodeFrames(ds *Dataset) ([]*SampleGrid, error) {
	desc, err := Describe(ds)
	if err != nil {
		return nil, err
	}
	return DecodeFramesWith(ds, desc)
}

// DecodeFramesWith decodes pixel data against an already-derived descriptor
func DecodeFramesWith(ds *Dataset, desc *ImageDescriptor) ([]*SampleGrid, error) {
	format, err := sampleFormat(desc)
	if err != nil {
		return nil, err
	}
	elem, ok := ds.Get(tag.PixelData)
	if !ok {
		return nil, missingAttribute("PixelData", tag.PixelData)
	}

	frameSize := desc.FrameSize()
	order := ds.TransferSyntax.ByteOrder()

	if pd, ok := elem.PixelData(); ok {
		return decodeEncapsulated(ds, desc, pd, format)
	}

	raw, ok := elem.Value.([]byte)
	if !ok {
		return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
			Err: fmt.Errorf("unexpected value type %T: %w", elem.Value, ErrUnrecognizedFormat)}
	}
	if len(raw) < frameSize*desc.Frames {
		return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
			Err: fmt.Errorf("have %d bytes, need %d for %d frame(s): %w",
				len(raw), frameSize*desc.Frames, desc.Frames, ErrPixelDataLengthMismatch)}
	}

	grids := make([]*SampleGrid, desc.Frames)
	for i := range grids {
		g, err := decodeNativeFrame(raw[i*frameSize:(i+1)*frameSize], desc, format, order)
		if err != nil {
			return nil, err
		}
		grids[i] = g
	}
	return grids, nil
}

// sampleFormat maps bits-allocated and pixel representation onto the closed
// set of supported formats
func sampleFormat(desc *ImageDescriptor) (SampleFormat, error) {
	if desc.BitsStored <= 0 || desc.BitsStored > desc.BitsAllocated {
		return 0, &AttributeError{Name: "BitsStored", Tag: tag.BitsStored,
			Err: fmt.Errorf("bits stored %d with bits allocated %d: %w",
				desc.BitsStored, desc.BitsAllocated, ErrUnrecognizedFormat)}
	}
	if desc.HighBit+1 < desc.BitsStored || desc.HighBit >= desc.BitsAllocated {
		return 0, &AttributeError{Name: "HighBit", Tag: tag.HighBit,
			Err: fmt.Errorf("high bit %d with bits stored %d: %w",
				desc.HighBit, desc.BitsStored, ErrUnrecognizedFormat)}
	}
	switch desc.BitsAllocated {
	case 8:
		if desc.Signed() {
			return Int8, nil
		}
		return Uint8, nil
	case 16:
		if desc.Signed() {
			return Int16, nil
		}
		return Uint16, nil
	default:
		return 0, &AttributeError{Name: "BitsAllocated", Tag: tag.BitsAllocated,
			Err: fmt.Errorf("%d bits: %w", desc.BitsAllocated, ErrUnsupportedBitDepth)}
	}
}

// decodeNativeFrame reinterprets one frame of raw bytes as samples,
// masking off bits above the declared high bit and sign-extending
// two's-complement representations.
func decodeNativeFrame(raw []byte, desc *ImageDescriptor, format SampleFormat, order binary.ByteOrder) (*SampleGrid, error) {
	count := desc.Rows * desc.Columns * desc.SamplesPerPixel
	size := format.Size()
	if len(raw) != count*size {
		return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
			Err: fmt.Errorf("frame has %d bytes, want %d: %w", len(raw), count*size, ErrPixelDataLengthMismatch)}
	}

	shift := uint(desc.HighBit + 1 - desc.BitsStored)
	mask := int32(1)<<desc.BitsStored - 1
	signBit := int32(1) << (desc.BitsStored - 1)

	data := make([]int32, count)
	for i := 0; i < count; i++ {
		var raw32 int32
		if size == 1 {
			raw32 = int32(raw[i])
		} else {
			raw32 = int32(order.Uint16(raw[i*2:]))
		}
		v := (raw32 >> shift) & mask
		if format.Signed() && v&signBit != 0 {
			v -= mask + 1
		}
		data[i] = v
	}

	g := &SampleGrid{
		Rows:            desc.Rows,
		Columns:         desc.Columns,
		SamplesPerPixel: desc.SamplesPerPixel,
		Format:          format,
		Data:            data,
	}
	if desc.SamplesPerPixel > 1 && desc.PlanarConfiguration == 1 {
		g.interleavePlanes()
	}
	return g, nil
}

// interleavePlanes converts contiguous per-channel planes (planar
// configuration 1) into per-pixel sample ordering.
func (g *SampleGrid) interleavePlanes() {
	pixels := g.Rows * g.Columns
	out := make([]int32, len(g.Data))
	for c := 0; c < g.SamplesPerPixel; c++ {
		plane := g.Data[c*pixels : (c+1)*pixels]
		for i, v := range plane {
			out[i*g.SamplesPerPixel+c] = v
		}
	}
	g.Data = out
}

// decodeEncapsulated maps compressed fragments to frames, decompresses each
// through the codec registry, and runs the native decode path on the output.
func decodeEncapsulated(ds *Dataset, desc *ImageDescriptor, pd *PixelData, format SampleFormat) ([]*SampleGrid, error) {
	uid := string(ds.TransferSyntax)
	dec, ok := DecompressorFor(uid)
	if !ok {
		return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
			Err: fmt.Errorf("no decompressor for %s: %w", ds.TransferSyntax.Name(), ErrUnsupportedTransferSyntax)}
	}

	frames, err := framesFromFragments(pd, desc.Frames)
	if err != nil {
		return nil, err
	}

	grids := make([]*SampleGrid, len(frames))
	for i, frame := range frames {
		raw, err := dec.Decompress(frame, desc)
		if err != nil {
			return nil, fmt.Errorf("decompressing frame %d: %w", i, err)
		}
		// decompressors emit little-endian native layout
		g, err := decodeNativeFrame(raw, desc, format, binary.LittleEndian)
		if err != nil {
			return nil, err
		}
		grids[i] = g
	}
	return grids, nil
}

// framesFromFragments groups encapsulated fragments per frame. One fragment
// per frame is the common layout; a single frame may span every fragment;
// anything else requires a basic offset table.
func framesFromFragments(pd *PixelData, frames int) ([][]byte, error) {
	switch {
	case len(pd.Fragments) == frames:
		return pd.Fragments, nil
	case frames == 1:
		var n int
		for _, f := range pd.Fragments {
			n += len(f)
		}
		joined := make([]byte, 0, n)
		for _, f := range pd.Fragments {
			joined = append(joined, f...)
		}
		return [][]byte{joined}, nil
	case len(pd.Offsets) == frames:
		// offsets index the first fragment of each frame by byte position
		out := make([][]byte, 0, frames)
		var pos uint32
		var cur []byte
		next := 1
		for _, f := range pd.Fragments {
			if next < frames && pos >= pd.Offsets[next] {
				out = append(out, cur)
				cur = nil
				next++
			}
			cur = append(cur, f...)
			pos += uint32(len(f)) + 8 // item tag + length header
		}
		out = append(out, cur)
		if len(out) != frames {
			return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
				Err: fmt.Errorf("offset table yields %d frames, want %d: %w", len(out), frames, ErrPixelDataLengthMismatch)}
		}
		return out, nil
	default:
		return nil, &AttributeError{Name: "PixelData", Tag: tag.PixelData,
			Err: fmt.Errorf("%d fragments for %d frames without offset table: %w",
				len(pd.Fragments), frames, ErrPixelDataLengthMismatch)}
	}
}
