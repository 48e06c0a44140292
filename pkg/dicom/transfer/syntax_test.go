package transfer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntax_Predicates(t *testing.T) {
	assert.False(t, ImplicitVRLittleEndian.IsExplicitVR())
	assert.True(t, ExplicitVRLittleEndian.IsExplicitVR())

	assert.True(t, ExplicitVRLittleEndian.IsLittleEndian())
	assert.False(t, ExplicitVRBigEndian.IsLittleEndian())
	assert.Equal(t, binary.BigEndian, ExplicitVRBigEndian.ByteOrder())
	assert.Equal(t, binary.LittleEndian, ImplicitVRLittleEndian.ByteOrder())

	assert.True(t, DeflatedExplicitVR.IsDeflated())
	assert.False(t, ExplicitVRLittleEndian.IsDeflated())
}

func TestSyntax_IsEncapsulated(t *testing.T) {
	for _, s := range []Syntax{ImplicitVRLittleEndian, ExplicitVRLittleEndian, ExplicitVRBigEndian, DeflatedExplicitVR} {
		assert.False(t, s.IsEncapsulated(), "%s", s)
	}
	for _, s := range []Syntax{RLELossless, JPEGBaseline, JPEG2000Lossless, JPEGLSLossless} {
		assert.True(t, s.IsEncapsulated(), "%s", s)
	}
}

func TestSyntax_Known(t *testing.T) {
	assert.True(t, RLELossless.Known())
	assert.False(t, FromUID("1.2.840.10008.1.2.4.106").Known())
}

func TestSyntax_Name(t *testing.T) {
	assert.Equal(t, "RLE Lossless", RLELossless.Name())
	// unknown syntaxes echo their UID
	assert.Equal(t, "9.9.9", Syntax("9.9.9").Name())
}
