package vr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

func TestVR_IsShortLength(t *testing.T) {
	for _, v := range []VR{US, UI, DS, CS, LO, FL} {
		assert.True(t, v.IsShortLength(), "%s", v)
	}
	for _, v := range []VR{OB, OW, SQ, UN, UT, UR} {
		assert.False(t, v.IsShortLength(), "%s", v)
	}
}

func TestVR_Kinds(t *testing.T) {
	assert.True(t, UI.IsString())
	assert.True(t, LT.IsText())
	assert.True(t, OW.IsBinary())
	assert.True(t, SQ.IsSequence())
	assert.False(t, US.IsSequence())
}

func TestVR_ValueSize(t *testing.T) {
	assert.Equal(t, 2, US.ValueSize())
	assert.Equal(t, 4, UL.ValueSize())
	assert.Equal(t, 8, FD.ValueSize())
}

func TestForTag(t *testing.T) {
	assert.Equal(t, US, ForTag(tag.Rows))
	assert.Equal(t, UI, ForTag(tag.TransferSyntaxUID))
	assert.Equal(t, OW, ForTag(tag.PixelData))

	// group length elements are UL even when unlisted
	assert.Equal(t, UL, ForTag(tag.New(0x0008, 0x0000)))
	// unknown tags decay to UN
	assert.Equal(t, UN, ForTag(tag.New(0x4321, 0x8765)))
}
