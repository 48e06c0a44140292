package dicom

import (
	"encoding/json"
	"fmt"
	"strings"
)

// String returns a one-line representation of the Element
func (e *Element) String() string {
	var valStr string
	switch v := e.Value.(type) {
	case *PixelData:
		valStr = fmt.Sprintf("Encapsulated Pixel Data (%d fragments)", len(v.Fragments))
	case []*Dataset:
		valStr = fmt.Sprintf("Sequence (%d items)", len(v))
	case []byte:
		if len(v) > 20 {
			valStr = fmt.Sprintf("Binary Data (%d bytes)", len(v))
		} else {
			valStr = fmt.Sprintf("%v", v)
		}
	case []uint16:
		if len(v) > 10 {
			valStr = fmt.Sprintf("Array of %d values", len(v))
		} else {
			valStr = fmt.Sprintf("%v", v)
		}
	default:
		valStr = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Tag, e.VR, valStr)
}

// MarshalJSON returns a JSON representation of the Element
func (e *Element) MarshalJSON() ([]byte, error) {
	value := e.Value
	switch v := e.Value.(type) {
	case *PixelData:
		value = fmt.Sprintf("encapsulated pixel data, %d fragments", len(v.Fragments))
	case []byte:
		value = fmt.Sprintf("%d bytes", len(v))
	}
	return json.Marshal(&struct {
		Tag   string      `json:"tag"`
		VR    string      `json:"vr"`
		Value interface{} `json:"value"`
	}{
		Tag:   e.Tag.String(),
		VR:    string(e.VR),
		Value: value,
	})
}

// String lists the dataset's elements in file order, one per line
func (ds *Dataset) String() string {
	if ds == nil {
		return "<nil>"
	}
	var b strings.Builder
	for _, t := range ds.order {
		b.WriteString(ds.elements[t].String())
		b.WriteString("\n")
	}
	return b.String()
}

// MarshalJSON returns the dataset as an array of elements in file order
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	elements := make([]*Element, 0, len(ds.order))
	for _, t := range ds.order {
		elements = append(elements, ds.elements[t])
	}
	return json.Marshal(elements)
}
