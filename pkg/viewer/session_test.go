package viewer

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
	"github.com/jpfielding/dicomview.go/pkg/render"
)

// fileBuilder assembles explicit-VR little-endian test files
type fileBuilder struct {
	bytes.Buffer
}

func newFile(ts transfer.Syntax) *fileBuilder {
	var b fileBuilder
	b.Write(make([]byte, 128))
	b.WriteString("DICM")
	uid := []byte(ts)
	if len(uid)%2 != 0 {
		uid = append(uid, 0)
	}
	b.element(tag.TransferSyntaxUID, vr.UI, uid)
	return &b
}

func (b *fileBuilder) element(t dicom.Tag, v vr.VR, value []byte) {
	binary.Write(b, binary.LittleEndian, t.Group)
	binary.Write(b, binary.LittleEndian, t.Element)
	b.WriteString(string(v))
	if v.IsShortLength() {
		binary.Write(b, binary.LittleEndian, uint16(len(value)))
	} else {
		b.Write([]byte{0, 0})
		binary.Write(b, binary.LittleEndian, uint32(len(value)))
	}
	b.Write(value)
}

func (b *fileBuilder) us(t dicom.Tag, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.element(t, vr.US, tmp[:])
}

func (b *fileBuilder) str(t dicom.Tag, v vr.VR, s string) {
	raw := []byte(s)
	if len(raw)%2 != 0 {
		raw = append(raw, ' ')
	}
	b.element(t, v, raw)
}

func (b *fileBuilder) pixelModule(rows, cols int) {
	b.us(tag.Rows, uint16(rows))
	b.us(tag.Columns, uint16(cols))
	b.us(tag.BitsAllocated, 8)
	b.us(tag.BitsStored, 8)
	b.us(tag.HighBit, 7)
	b.us(tag.PixelRepresentation, 0)
	b.us(tag.SamplesPerPixel, 1)
	b.str(tag.PhotometricInterpretation, vr.CS, "MONOCHROME2")
}

// item writes one encapsulated pixel-data item with its length header
func (b *fileBuilder) item(payload []byte) {
	binary.Write(b, binary.LittleEndian, tag.Item.Group)
	binary.Write(b, binary.LittleEndian, tag.Item.Element)
	binary.Write(b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
}

func mono8(rows, cols int, samples []byte) []byte {
	b := newFile(transfer.ExplicitVRLittleEndian)
	b.str(tag.SOPInstanceUID, vr.UI, "1.2.826.0.1.3680043.2.1125.1")
	b.pixelModule(rows, cols)
	px := samples
	if len(px)%2 != 0 {
		px = append(append([]byte{}, px...), 0)
	}
	b.element(tag.PixelData, vr.OB, px)
	return b.Bytes()
}

// jpegEncapsulated builds a file claiming JPEG Baseline with one opaque fragment
func jpegEncapsulated(rows, cols int) []byte {
	b := newFile(transfer.JPEGBaseline)
	b.pixelModule(rows, cols)

	binary.Write(b, binary.LittleEndian, tag.PixelData.Group)
	binary.Write(b, binary.LittleEndian, tag.PixelData.Element)
	b.WriteString(string(vr.OB))
	b.Write([]byte{0, 0})
	binary.Write(b, binary.LittleEndian, uint32(0xFFFFFFFF))
	b.item(nil) // empty basic offset table
	b.item([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	binary.Write(b, binary.LittleEndian, tag.SequenceDelimitationItem.Group)
	binary.Write(b, binary.LittleEndian, tag.SequenceDelimitationItem.Element)
	binary.Write(b, binary.LittleEndian, uint32(0))
	return b.Bytes()
}

func TestSession_Load(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StateEmpty, s.State())

	require.NoError(t, s.Load(mono8(2, 2, []byte{0, 64, 128, 255})))
	assert.Equal(t, StateLoaded, s.State())
	assert.Equal(t, 1, s.FrameCount())
	assert.Equal(t, 0, s.Frame())
	assert.NotEmpty(t, s.ID())
	assert.True(t, s.Window().Valid())
	require.NotNil(t, s.Descriptor())
	assert.Equal(t, 2, s.Descriptor().Rows)
}

func TestSession_LoadFailureResets(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(mono8(2, 2, []byte{1, 2, 3, 4})))
	require.Equal(t, StateLoaded, s.State())

	err := s.Load([]byte("definitely not a dicom stream at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dicom.ErrUnrecognizedFormat)
	assert.Equal(t, StateEmpty, s.State())
	assert.Zero(t, s.FrameCount())
	assert.Empty(t, s.ID())
	assert.Nil(t, s.Dataset())
}

func TestSession_LoadCompressedWithoutCodec(t *testing.T) {
	s := NewSession()
	err := s.Load(jpegEncapsulated(2, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, dicom.ErrUnsupportedTransferSyntax)
	assert.Equal(t, StateEmpty, s.State())
}

func TestSession_SetFrame(t *testing.T) {
	b := newFile(transfer.ExplicitVRLittleEndian)
	b.pixelModule(2, 2)
	b.str(tag.NumberOfFrames, vr.IS, "3")
	b.element(tag.PixelData, vr.OB, make([]byte, 12))

	s := NewSession()
	require.NoError(t, s.Load(b.Bytes()))
	require.Equal(t, 3, s.FrameCount())

	require.NoError(t, s.SetFrame(2))
	assert.Equal(t, 2, s.Frame())

	err := s.SetFrame(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameIndexOutOfRange)
	assert.Equal(t, 2, s.Frame(), "failed seek leaves the frame unchanged")
	assert.Equal(t, StateLoaded, s.State())

	assert.ErrorIs(t, s.SetFrame(-1), ErrFrameIndexOutOfRange)
}

func TestSession_SetFrame_NoDataset(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.SetFrame(0), ErrNoDataset)
}

func TestSession_SetWindow(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(mono8(2, 2, []byte{0, 1, 2, 3})))

	require.NoError(t, s.SetWindow(100, 50))
	assert.Equal(t, 100.0, s.Window().Center)
	assert.Equal(t, 50.0, s.Window().Width)

	prev := s.Window()
	err := s.SetWindow(100, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrInvalidWindowWidth)
	assert.Equal(t, prev, s.Window(), "failed adjust leaves the window unchanged")
}

func TestSession_DeclaredWindowPreferred(t *testing.T) {
	b := newFile(transfer.ExplicitVRLittleEndian)
	b.pixelModule(1, 2)
	b.str(tag.WindowCenter, vr.DS, "40")
	b.str(tag.WindowWidth, vr.DS, "400")
	b.element(tag.PixelData, vr.OB, []byte{0, 255})

	s := NewSession()
	require.NoError(t, s.Load(b.Bytes()))
	assert.Equal(t, 40.0, s.Window().Center)
	assert.Equal(t, 400.0, s.Window().Width)
}

func TestSession_Render(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Load(mono8(1, 4, []byte{0, 128, 255, 64})))
	require.NoError(t, s.SetWindow(128, 256))

	f, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, s.State(), "render returns the session to loaded")
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 1, f.Height)
	for i, want := range []uint8{0, 128, 255, 64} {
		assert.Equal(t, want, f.Pix[i*4], "pixel %d", i)
	}

	// same inputs, same output
	f2, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, f.Pix, f2.Pix)
}

func TestSession_Render_NoDataset(t *testing.T) {
	s := NewSession()
	_, err := s.Render()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestSession_MultiFrameRender(t *testing.T) {
	b := newFile(transfer.ExplicitVRLittleEndian)
	b.pixelModule(1, 2)
	b.str(tag.NumberOfFrames, vr.IS, "2")
	b.element(tag.PixelData, vr.OB, []byte{10, 20, 200, 210})

	s := NewSession()
	require.NoError(t, s.Load(b.Bytes()))
	require.NoError(t, s.SetWindow(128, 256))

	f0, err := s.Render()
	require.NoError(t, err)
	require.NoError(t, s.SetFrame(1))
	f1, err := s.Render()
	require.NoError(t, err)

	assert.Equal(t, uint8(10), f0.Pix[0])
	assert.Equal(t, uint8(200), f1.Pix[0])
}
