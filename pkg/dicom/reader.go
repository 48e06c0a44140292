package dicom

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
)

const (
	undefinedLength  = 0xFFFFFFFF
	preambleSize     = 128
	maxSequenceDepth = 64
)

// ParseOption adjusts parsing tolerances
type ParseOption func(*parseOptions)

type parseOptions struct {
	allowMissingPreamble bool
}

// WithStrictPreamble rejects buffers without the 128-byte preamble and
// DICM magic instead of attempting the historical implicit-VR fallback.
func WithStrictPreamble() ParseOption {
	return func(o *parseOptions) { o.allowMissingPreamble = false }
}

// Parse decodes a complete in-memory DICOM file into a Dataset.
//
// The file meta-information group (always explicit VR little endian) is read
// first to fix the transfer syntax for the remainder of the stream. Buffers
// without the DICM magic are retried as implicit VR little endian from
// offset 0 unless WithStrictPreamble is given.
func Parse(data []byte, opts ...ParseOption) (*Dataset, error) {
	o := parseOptions{allowMissingPreamble: true}
	for _, opt := range opts {
		opt(&o)
	}

	if hasMagic(data) {
		r := &reader{buf: data, pos: preambleSize + 4, explicitVR: true, order: binary.LittleEndian}
		return r.readFile()
	}
	if !o.allowMissingPreamble {
		return nil, fmt.Errorf("missing DICM magic: %w", ErrUnrecognizedFormat)
	}
	// Historical tolerance: raw datasets without the part-10 wrapper are
	// implicit VR little endian.
	r := &reader{buf: data, explicitVR: false, order: binary.LittleEndian, ts: transfer.ImplicitVRLittleEndian}
	ds, err := r.readDataset()
	if err != nil {
		return nil, fmt.Errorf("no DICM magic and implicit-vr fallback failed (%v): %w", err, ErrUnrecognizedFormat)
	}
	ds.TransferSyntax = transfer.ImplicitVRLittleEndian
	return ds, nil
}

func hasMagic(data []byte) bool {
	return len(data) >= preambleSize+4 && string(data[preambleSize:preambleSize+4]) == "DICM"
}

// reader is a sequential cursor over the file buffer. It is restartable
// only from the buffer start; parsing consumes it exactly once.
type reader struct {
	buf        []byte
	pos        int
	explicitVR bool
	order      binary.ByteOrder
	ts         transfer.Syntax
}

// readFile reads the group-0002 block, fixes the transfer syntax, then
// reads the dataset proper.
func (r *reader) readFile() (*Dataset, error) {
	ds := NewDataset()

	// File meta is always explicit VR little endian
	for r.remaining() >= 8 {
		if r.order.Uint16(r.buf[r.pos:]) != 0x0002 {
			break
		}
		elem, err := r.readElement()
		if err != nil {
			return nil, err
		}
		ds.add(elem)
	}

	ts := transfer.ImplicitVRLittleEndian
	if uid, ok := ds.GetString(tag.TransferSyntaxUID); ok {
		ts = transfer.FromUID(uid)
	}
	if !ts.Known() {
		return nil, &ParseError{Offset: r.pos, Tag: tag.TransferSyntaxUID,
			Err: fmt.Errorf("%q: %w", string(ts), ErrUnsupportedTransferSyntax)}
	}
	if ts.IsDeflated() {
		inflated, err := io.ReadAll(flate.NewReader(bytes.NewReader(r.buf[r.pos:])))
		if err != nil {
			return nil, &ParseError{Offset: r.pos, Err: fmt.Errorf("inflating dataset: %v: %w", err, ErrTruncatedStream)}
		}
		r.buf, r.pos = inflated, 0
	}
	r.ts = ts
	r.explicitVR = ts.IsExplicitVR()
	r.order = ts.ByteOrder()

	body, err := r.readDataset()
	if err != nil {
		return nil, err
	}
	for _, t := range body.order {
		ds.add(body.elements[t])
	}
	ds.TransferSyntax = ts
	return ds, nil
}

// readDataset reads top-level elements until the buffer is exhausted
func (r *reader) readDataset() (*Dataset, error) {
	ds := NewDataset()
	for r.remaining() > 0 {
		elem, err := r.readElement()
		if err != nil {
			return nil, err
		}
		ds.add(elem)
	}
	if ds.Len() == 0 {
		return nil, &ParseError{Offset: r.pos, Err: fmt.Errorf("empty dataset: %w", ErrUnrecognizedFormat)}
	}
	return ds, nil
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) require(n int, t Tag) error {
	if r.remaining() < n {
		return &ParseError{Offset: r.pos, Tag: t,
			Err: fmt.Errorf("need %d bytes, %d remain: %w", n, r.remaining(), ErrTruncatedStream)}
	}
	return nil
}

func (r *reader) readTag() (Tag, error) {
	if err := r.require(4, Tag{}); err != nil {
		return Tag{}, err
	}
	group := r.order.Uint16(r.buf[r.pos:])
	element := r.order.Uint16(r.buf[r.pos+2:])
	r.pos += 4
	return Tag{Group: group, Element: element}, nil
}

func (r *reader) readUint32(t Tag) (uint32, error) {
	if err := r.require(4, t); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// readVRLen reads the VR (explicit mode only) and value length for a tag
func (r *reader) readVRLen(t Tag) (vr.VR, uint32, error) {
	if !r.explicitVR || t.IsDelimiter() {
		vl, err := r.readUint32(t)
		return vr.ForTag(t), vl, err
	}
	if err := r.require(2, t); err != nil {
		return "", 0, err
	}
	v := vr.VR(r.buf[r.pos : r.pos+2])
	if !isVRCode(v) {
		return "", 0, &ParseError{Offset: r.pos, Tag: t,
			Err: fmt.Errorf("invalid VR code %q: %w", string(v), ErrUnrecognizedFormat)}
	}
	r.pos += 2
	if v.IsShortLength() {
		if err := r.require(2, t); err != nil {
			return "", 0, err
		}
		vl := uint32(r.order.Uint16(r.buf[r.pos:]))
		r.pos += 2
		return v, vl, nil
	}
	// 2 reserved bytes then 4-byte length
	if err := r.require(6, t); err != nil {
		return "", 0, err
	}
	vl := r.order.Uint32(r.buf[r.pos+2:])
	r.pos += 6
	return v, vl, nil
}

func isVRCode(v vr.VR) bool {
	if len(v) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if v[i] < 'A' || v[i] > 'Z' {
			return false
		}
	}
	return true
}

// readElement reads one complete data element, recursing into sequences
// and encapsulated pixel data as needed.
func (r *reader) readElement() (*Element, error) {
	start := r.pos
	t, err := r.readTag()
	if err != nil {
		return nil, err
	}
	if t.IsDelimiter() {
		return nil, &ParseError{Offset: start, Tag: t,
			Err: fmt.Errorf("delimiter outside sequence: %w", ErrUnrecognizedFormat)}
	}

	v, vl, err := r.readVRLen(t)
	if err != nil {
		return nil, err
	}

	if vl == undefinedLength {
		if t == tag.PixelData {
			pd, err := r.readEncapsulatedPixelData()
			if err != nil {
				return nil, err
			}
			return &Element{Tag: t, VR: v, Value: pd}, nil
		}
		if v.IsSequence() || v == vr.UN {
			items, err := r.readSequenceItems(t, undefinedLength)
			if err != nil {
				return nil, err
			}
			return &Element{Tag: t, VR: vr.SQ, Value: items}, nil
		}
		return nil, &ParseError{Offset: start, Tag: t,
			Err: fmt.Errorf("undefined length on VR %s: %w", v, ErrUnrecognizedFormat)}
	}

	if v.IsSequence() {
		items, err := r.readSequenceItems(t, vl)
		if err != nil {
			return nil, err
		}
		return &Element{Tag: t, VR: v, Value: items}, nil
	}

	if vl%2 != 0 {
		return nil, &ParseError{Offset: start, Tag: t,
			Err: fmt.Errorf("odd value length %d: %w", vl, ErrUnrecognizedFormat)}
	}
	if err := r.require(int(vl), t); err != nil {
		return nil, err
	}
	value := parseValue(v, r.buf[r.pos:r.pos+int(vl)], r.order)
	r.pos += int(vl)
	return &Element{Tag: t, VR: v, Value: value}, nil
}

// openSeq is one open sequence context. Nested sequences are parsed with an
// explicit stack of these rather than recursion, bounded by maxSequenceDepth,
// so crafted input cannot drive unbounded stack growth.
type openSeq struct {
	tag     Tag
	items   []*Dataset
	item    *Dataset // currently open item, nil between items
	end     int      // absolute end offset, -1 for undefined length
	itemEnd int      // absolute end of the open item, -1 for undefined
}

func (s *openSeq) closeItem() {
	if s.item != nil {
		s.items = append(s.items, s.item)
		s.item = nil
		s.itemEnd = -1
	}
}

// readSequenceItems reads the items of a sequence element. length is the
// declared byte length or undefinedLength for delimiter-terminated streams.
func (r *reader) readSequenceItems(seqTag Tag, length uint32) ([]*Dataset, error) {
	top := &openSeq{tag: seqTag, items: []*Dataset{}, end: -1, itemEnd: -1}
	if length != undefinedLength {
		top.end = r.pos + int(length)
	}
	stack := []*openSeq{top}

	// pop closes the stack top and either returns its items (outermost) or
	// attaches them as a nested sequence element of the parent's open item
	pop := func() ([]*Dataset, error) {
		cur := stack[len(stack)-1]
		cur.closeItem()
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return cur.items, nil
		}
		parent := stack[len(stack)-1]
		if parent.item == nil {
			return nil, &ParseError{Offset: r.pos, Tag: cur.tag,
				Err: fmt.Errorf("sequence outside item: %w", ErrUnrecognizedFormat)}
		}
		parent.item.add(&Element{Tag: cur.tag, VR: vr.SQ, Value: cur.items})
		return nil, nil
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		// defined-length item/sequence boundaries close without delimiters
		if cur.item != nil && cur.itemEnd >= 0 && r.pos >= cur.itemEnd {
			cur.closeItem()
			continue
		}
		if cur.end >= 0 && r.pos >= cur.end {
			items, err := pop()
			if err != nil {
				return nil, err
			}
			if items != nil {
				return items, nil
			}
			continue
		}

		start := r.pos
		t, err := r.readTag()
		if err != nil {
			return nil, err
		}

		switch t {
		case tag.Item:
			vl, err := r.readUint32(t)
			if err != nil {
				return nil, err
			}
			if cur.item != nil {
				return nil, &ParseError{Offset: start, Tag: t,
					Err: fmt.Errorf("item started before previous item closed: %w", ErrUnrecognizedFormat)}
			}
			cur.item = NewDataset()
			if vl == undefinedLength {
				cur.itemEnd = -1
			} else {
				cur.itemEnd = r.pos + int(vl)
				if vl == 0 {
					cur.closeItem()
				}
			}

		case tag.ItemDelimitationItem:
			if _, err := r.readUint32(t); err != nil {
				return nil, err
			}
			if cur.item == nil {
				return nil, &ParseError{Offset: start, Tag: t,
					Err: fmt.Errorf("item delimiter without open item: %w", ErrUnrecognizedFormat)}
			}
			cur.closeItem()

		case tag.SequenceDelimitationItem:
			if _, err := r.readUint32(t); err != nil {
				return nil, err
			}
			items, err := pop()
			if err != nil {
				return nil, err
			}
			if items != nil {
				return items, nil
			}

		default:
			if cur.item == nil {
				return nil, &ParseError{Offset: start, Tag: t,
					Err: fmt.Errorf("element outside item: %w", ErrUnrecognizedFormat)}
			}
			v, vl, err := r.readVRLen(t)
			if err != nil {
				return nil, err
			}
			if v.IsSequence() || (vl == undefinedLength && v == vr.UN) {
				if len(stack) >= maxSequenceDepth {
					return nil, &ParseError{Offset: start, Tag: t,
						Err: fmt.Errorf("sequence nesting exceeds %d: %w", maxSequenceDepth, ErrTruncatedStream)}
				}
				nested := &openSeq{tag: t, items: []*Dataset{}, end: -1, itemEnd: -1}
				if vl != undefinedLength {
					nested.end = r.pos + int(vl)
				}
				stack = append(stack, nested)
				continue
			}
			if vl == undefinedLength {
				return nil, &ParseError{Offset: start, Tag: t,
					Err: fmt.Errorf("undefined length on VR %s inside item: %w", v, ErrUnrecognizedFormat)}
			}
			if vl%2 != 0 {
				return nil, &ParseError{Offset: start, Tag: t,
					Err: fmt.Errorf("odd value length %d: %w", vl, ErrUnrecognizedFormat)}
			}
			if err := r.require(int(vl), t); err != nil {
				return nil, err
			}
			cur.item.add(&Element{Tag: t, VR: v, Value: parseValue(v, r.buf[r.pos:r.pos+int(vl)], r.order)})
			r.pos += int(vl)
		}
	}
	// unreachable: the loop exits through pop()
	return nil, &ParseError{Offset: r.pos, Tag: seqTag, Err: ErrTruncatedStream}
}

// readEncapsulatedPixelData reads the basic offset table and compressed
// fragments of an undefined-length pixel-data element.
func (r *reader) readEncapsulatedPixelData() (*PixelData, error) {
	start := r.pos
	botTag, err := r.readTag()
	if err != nil {
		return nil, err
	}
	if botTag != tag.Item {
		return nil, &ParseError{Offset: start, Tag: botTag,
			Err: fmt.Errorf("expected basic offset table item: %w", ErrUnrecognizedFormat)}
	}
	botLen, err := r.readUint32(botTag)
	if err != nil {
		return nil, err
	}
	if err := r.require(int(botLen), botTag); err != nil {
		return nil, err
	}
	pd := &PixelData{}
	if botLen > 0 {
		pd.Offsets = make([]uint32, botLen/4)
		for i := range pd.Offsets {
			pd.Offsets[i] = r.order.Uint32(r.buf[r.pos+i*4:])
		}
	}
	r.pos += int(botLen)

	for {
		start := r.pos
		t, err := r.readTag()
		if err != nil {
			return nil, err
		}
		if t == tag.SequenceDelimitationItem {
			if _, err := r.readUint32(t); err != nil {
				return nil, err
			}
			return pd, nil
		}
		if t != tag.Item {
			return nil, &ParseError{Offset: start, Tag: t,
				Err: fmt.Errorf("expected fragment item: %w", ErrUnrecognizedFormat)}
		}
		vl, err := r.readUint32(t)
		if err != nil {
			return nil, err
		}
		if vl == undefinedLength {
			return nil, &ParseError{Offset: start, Tag: t,
				Err: fmt.Errorf("fragment with undefined length: %w", ErrUnrecognizedFormat)}
		}
		if err := r.require(int(vl), t); err != nil {
			return nil, err
		}
		frag := make([]byte, vl)
		copy(frag, r.buf[r.pos:r.pos+int(vl)])
		pd.Fragments = append(pd.Fragments, frag)
		r.pos += int(vl)
	}
}

// parseValue converts raw value bytes into a typed value per VR rules.
// Single-valued numeric attributes decode to scalars, multi-valued to slices.
func parseValue(v vr.VR, data []byte, order binary.ByteOrder) interface{} {
	switch v {
	case vr.US:
		if len(data) == 2 {
			return order.Uint16(data)
		}
		out := make([]uint16, len(data)/2)
		for i := range out {
			out[i] = order.Uint16(data[i*2:])
		}
		return out
	case vr.SS:
		if len(data) == 2 {
			return int16(order.Uint16(data))
		}
		out := make([]int16, len(data)/2)
		for i := range out {
			out[i] = int16(order.Uint16(data[i*2:]))
		}
		return out
	case vr.UL:
		if len(data) == 4 {
			return order.Uint32(data)
		}
		out := make([]uint32, len(data)/4)
		for i := range out {
			out[i] = order.Uint32(data[i*4:])
		}
		return out
	case vr.SL:
		if len(data) == 4 {
			return int32(order.Uint32(data))
		}
		out := make([]int32, len(data)/4)
		for i := range out {
			out[i] = int32(order.Uint32(data[i*4:]))
		}
		return out
	case vr.FL:
		out := make([]float32, len(data)/4)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(data[i*4:]))
		}
		if len(out) == 1 {
			return out[0]
		}
		return out
	case vr.FD:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(data[i*8:]))
		}
		if len(out) == 1 {
			return out[0]
		}
		return out
	case vr.AT:
		out := make([]uint32, len(data)/4)
		for i := range out {
			out[i] = uint32(order.Uint16(data[i*4:]))<<16 | uint32(order.Uint16(data[i*4+2:]))
		}
		return out
	case vr.OB, vr.OW, vr.OL, vr.OF, vr.OD, vr.UN:
		// owned copy so the dataset does not alias the caller's buffer
		out := make([]byte, len(data))
		copy(out, data)
		return out
	default:
		// string VRs: strip trailing NUL/space padding
		s := string(data)
		for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
			s = s[:len(s)-1]
		}
		return s
	}
}
