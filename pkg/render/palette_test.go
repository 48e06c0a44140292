package render

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
)

// paletteFile builds a minimal explicit-VR little-endian file carrying the
// palette lookup table attributes
func paletteFile(t *testing.T, entries, first, bits int, channel func(i int) uint16) []byte {
	t.Helper()
	var b bytes.Buffer
	b.Write(make([]byte, 128))
	b.WriteString("DICM")

	writeShort := func(tg dicom.Tag, v vr.VR, value []byte) {
		binary.Write(&b, binary.LittleEndian, tg.Group)
		binary.Write(&b, binary.LittleEndian, tg.Element)
		b.WriteString(string(v))
		binary.Write(&b, binary.LittleEndian, uint16(len(value)))
		b.Write(value)
	}
	writeLong := func(tg dicom.Tag, v vr.VR, value []byte) {
		binary.Write(&b, binary.LittleEndian, tg.Group)
		binary.Write(&b, binary.LittleEndian, tg.Element)
		b.WriteString(string(v))
		b.Write([]byte{0, 0})
		binary.Write(&b, binary.LittleEndian, uint32(len(value)))
		b.Write(value)
	}

	uid := []byte("1.2.840.10008.1.2.1\x00")
	writeShort(tag.TransferSyntaxUID, vr.UI, uid)

	desc := make([]byte, 6)
	binary.LittleEndian.PutUint16(desc[0:], uint16(entries))
	binary.LittleEndian.PutUint16(desc[2:], uint16(first))
	binary.LittleEndian.PutUint16(desc[4:], uint16(bits))

	size := 1
	if bits == 16 {
		size = 2
	}
	data := make([]byte, entries*size)
	for i := 0; i < entries; i++ {
		if size == 1 {
			data[i] = byte(channel(i))
		} else {
			binary.LittleEndian.PutUint16(data[i*2:], channel(i))
		}
	}

	for _, tags := range [][2]dicom.Tag{
		{tag.RedPaletteColorLookupTableDescriptor, tag.RedPaletteColorLookupTableData},
		{tag.GreenPaletteColorLookupTableDescriptor, tag.GreenPaletteColorLookupTableData},
		{tag.BluePaletteColorLookupTableDescriptor, tag.BluePaletteColorLookupTableData},
	} {
		writeShort(tags[0], vr.US, desc)
		writeLong(tags[1], vr.OW, data)
	}
	return b.Bytes()
}

func TestPaletteFromDataset_8Bit(t *testing.T) {
	ds, err := dicom.Parse(paletteFile(t, 4, 2, 8, func(i int) uint16 { return uint16(i * 10) }))
	require.NoError(t, err)

	p, err := PaletteFromDataset(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, p.FirstMapped)
	assert.Equal(t, []uint8{0, 10, 20, 30}, p.R)
	assert.Equal(t, p.R, p.G)
	assert.Equal(t, p.R, p.B)
}

func TestPaletteFromDataset_16Bit(t *testing.T) {
	ds, err := dicom.Parse(paletteFile(t, 4, 0, 16, func(i int) uint16 { return uint16(i) << 14 }))
	require.NoError(t, err)

	p, err := PaletteFromDataset(ds)
	require.NoError(t, err)
	// 16-bit entries keep their top 8 bits
	assert.Equal(t, []uint8{0x00, 0x40, 0x80, 0xC0}, p.R)
}

func TestPaletteFromDataset_Missing(t *testing.T) {
	_, err := PaletteFromDataset(dicom.NewDataset())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPalette)
}

func TestPaletteLUT_Lookup_Clamps(t *testing.T) {
	p := &PaletteLUT{
		R:           []uint8{1, 2, 3},
		G:           []uint8{4, 5, 6},
		B:           []uint8{7, 8, 9},
		FirstMapped: 10,
	}

	r, g, b := p.Lookup(5) // below first mapped value
	assert.Equal(t, [3]uint8{1, 4, 7}, [3]uint8{r, g, b})

	r, g, b = p.Lookup(11)
	assert.Equal(t, [3]uint8{2, 5, 8}, [3]uint8{r, g, b})

	r, g, b = p.Lookup(100) // past the end
	assert.Equal(t, [3]uint8{3, 6, 9}, [3]uint8{r, g, b})
}
