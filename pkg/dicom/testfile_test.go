package dicom

import (
	"bytes"
	"encoding/binary"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
)

// test helpers building synthetic DICOM buffers

func evenPad(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

func u16(order binary.ByteOrder, vs ...uint16) []byte {
	out := make([]byte, len(vs)*2)
	for i, v := range vs {
		order.PutUint16(out[i*2:], v)
	}
	return out
}

func writeTag(b *bytes.Buffer, order binary.ByteOrder, t tag.Tag) {
	var tmp [4]byte
	order.PutUint16(tmp[0:], t.Group)
	order.PutUint16(tmp[2:], t.Element)
	b.Write(tmp[:])
}

func writeElement(b *bytes.Buffer, order binary.ByteOrder, explicit bool, t tag.Tag, v vr.VR, value []byte) {
	writeTag(b, order, t)
	if explicit {
		b.WriteString(string(v))
		if v.IsShortLength() {
			var tmp [2]byte
			order.PutUint16(tmp[:], uint16(len(value)))
			b.Write(tmp[:])
		} else {
			b.Write([]byte{0, 0})
			var tmp [4]byte
			order.PutUint32(tmp[:], uint32(len(value)))
			b.Write(tmp[:])
		}
	} else {
		var tmp [4]byte
		order.PutUint32(tmp[:], uint32(len(value)))
		b.Write(tmp[:])
	}
	b.Write(value)
}

// fileHeader writes the preamble, magic, and a minimal group-0002 block
// naming the transfer syntax
func fileHeader(ts transfer.Syntax) *bytes.Buffer {
	var b bytes.Buffer
	b.Write(make([]byte, 128))
	b.WriteString("DICM")
	writeElement(&b, binary.LittleEndian, true, tag.TransferSyntaxUID, vr.UI, evenPad(string(ts)))
	return &b
}

// imagePixelModule appends the image pixel attributes for an 8 or 16 bit
// monochrome layout
func imagePixelModule(b *bytes.Buffer, order binary.ByteOrder, explicit bool, rows, cols, bits, signed int) {
	writeElement(b, order, explicit, tag.Rows, vr.US, u16(order, uint16(rows)))
	writeElement(b, order, explicit, tag.Columns, vr.US, u16(order, uint16(cols)))
	writeElement(b, order, explicit, tag.BitsAllocated, vr.US, u16(order, uint16(bits)))
	writeElement(b, order, explicit, tag.BitsStored, vr.US, u16(order, uint16(bits)))
	writeElement(b, order, explicit, tag.HighBit, vr.US, u16(order, uint16(bits-1)))
	writeElement(b, order, explicit, tag.PixelRepresentation, vr.US, u16(order, uint16(signed)))
	writeElement(b, order, explicit, tag.SamplesPerPixel, vr.US, u16(order, 1))
	writeElement(b, order, explicit, tag.PhotometricInterpretation, vr.CS, evenPad("MONOCHROME2 "))
}

// mono8File builds a complete explicit-VR little-endian file with the given
// 8-bit samples laid out rows x cols
func mono8File(rows, cols int, samples []byte) []byte {
	b := fileHeader(transfer.ExplicitVRLittleEndian)
	order := binary.LittleEndian
	writeElement(b, order, true, tag.SOPInstanceUID, vr.UI, evenPad("1.2.3.4.5"))
	imagePixelModule(b, order, true, rows, cols, 8, 0)
	px := samples
	if len(px)%2 != 0 {
		px = append(append([]byte{}, px...), 0)
	}
	writeElement(b, order, true, tag.PixelData, vr.OB, px)
	return b.Bytes()
}
