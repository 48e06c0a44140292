package dicom

import (
	"strconv"
	"strings"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
)

// Tag alias to avoid duplication
type Tag = tag.Tag

// TransferSyntax alias for the transfer subpackage type
type TransferSyntax = transfer.Syntax

// Element represents a single parsed DICOM data element
type Element struct {
	Tag   Tag
	VR    vr.VR
	Value interface{}
}

// Dataset is an insertion-ordered attribute store built from one pass over
// the element stream. It is not mutated after parsing completes.
type Dataset struct {
	TransferSyntax TransferSyntax

	elements map[Tag]*Element
	order    []Tag
}

// NewDataset returns an empty dataset
func NewDataset() *Dataset {
	return &Dataset{elements: make(map[Tag]*Element)}
}

// add indexes an element. The first occurrence of a tag governs lookups;
// later duplicates are a format anomaly and are dropped.
func (ds *Dataset) add(e *Element) {
	if _, ok := ds.elements[e.Tag]; ok {
		return
	}
	ds.elements[e.Tag] = e
	ds.order = append(ds.order, e.Tag)
}

// Get returns the element for a tag
func (ds *Dataset) Get(t Tag) (*Element, bool) {
	e, ok := ds.elements[t]
	return e, ok
}

// Len returns the number of indexed elements
func (ds *Dataset) Len() int {
	return len(ds.elements)
}

// Tags returns the indexed tags in file order
func (ds *Dataset) Tags() []Tag {
	out := make([]Tag, len(ds.order))
	copy(out, ds.order)
	return out
}

// GetString returns the string value of a tag, trimmed of padding
func (ds *Dataset) GetString(t Tag) (string, bool) {
	e, ok := ds.elements[t]
	if !ok {
		return "", false
	}
	s, ok := e.Value.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// GetStrings returns a multi-valued string attribute split on the standard
// value delimiter
func (ds *Dataset) GetStrings(t Tag) ([]string, bool) {
	s, ok := ds.GetString(t)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, `\`)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// GetInt returns the first value of a tag as an int. String-typed values
// (IS) are parsed; binary numeric values are converted.
func (ds *Dataset) GetInt(t Tag) (int, bool) {
	e, ok := ds.elements[t]
	if !ok {
		return 0, false
	}
	return e.Int()
}

// GetFloats returns all values of a tag as float64s. String-typed values
// (DS) are split on the value delimiter and parsed.
func (ds *Dataset) GetFloats(t Tag) ([]float64, bool) {
	e, ok := ds.elements[t]
	if !ok {
		return nil, false
	}
	return e.Floats()
}

// GetFloat returns the first value of a tag as a float64
func (ds *Dataset) GetFloat(t Tag) (float64, bool) {
	fs, ok := ds.GetFloats(t)
	if !ok || len(fs) == 0 {
		return 0, false
	}
	return fs[0], true
}

// GetBytes returns the raw byte value of a tag (OB/OW/UN)
func (ds *Dataset) GetBytes(t Tag) ([]byte, bool) {
	e, ok := ds.elements[t]
	if !ok {
		return nil, false
	}
	b, ok := e.Value.([]byte)
	return b, ok
}

// GetSequence returns the item datasets of a sequence tag
func (ds *Dataset) GetSequence(t Tag) ([]*Dataset, bool) {
	e, ok := ds.elements[t]
	if !ok {
		return nil, false
	}
	items, ok := e.Value.([]*Dataset)
	return items, ok
}

// Int returns the element's first value as an int
func (e *Element) Int() (int, bool) {
	switch v := e.Value.(type) {
	case uint16:
		return int(v), true
	case int16:
		return int(v), true
	case uint32:
		return int(v), true
	case int32:
		return int(v), true
	case []uint16:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case []int16:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case []uint32:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case string:
		first := strings.TrimSpace(strings.SplitN(v, `\`, 2)[0])
		if i, err := strconv.Atoi(first); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Floats returns all element values as float64s
func (e *Element) Floats() ([]float64, bool) {
	switch v := e.Value.(type) {
	case float32:
		return []float64{float64(v)}, true
	case float64:
		return []float64{v}, true
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, true
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return out, true
	case uint16:
		return []float64{float64(v)}, true
	case int16:
		return []float64{float64(v)}, true
	case uint32:
		return []float64{float64(v)}, true
	case int32:
		return []float64{float64(v)}, true
	case []uint16:
		out := make([]float64, len(v))
		for i, u := range v {
			out[i] = float64(u)
		}
		return out, true
	case []int16:
		out := make([]float64, len(v))
		for i, u := range v {
			out[i] = float64(u)
		}
		return out, true
	case string:
		parts := strings.Split(v, `\`)
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, false
			}
			out = append(out, f)
		}
		return out, len(out) > 0
	}
	return nil, false
}

// Text returns the element's value as a trimmed string
func (e *Element) Text() (string, bool) {
	s, ok := e.Value.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// PixelData returns encapsulated pixel data if this element carries it
func (e *Element) PixelData() (*PixelData, bool) {
	pd, ok := e.Value.(*PixelData)
	return pd, ok
}

// PixelData holds the encapsulated form of the pixel-data element: the
// basic offset table plus the raw compressed fragments in stream order.
// Native pixel data stays a plain []byte element value instead.
type PixelData struct {
	Offsets   []uint32
	Fragments [][]byte
}
