package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/dicom/vr"
)

func TestValidate_CompleteDataset(t *testing.T) {
	ds, err := Parse(mono8File(2, 2, []byte{1, 2, 3, 4}))
	require.NoError(t, err)

	result := Validate(ds, ViewerRequirements)
	assert.True(t, result.IsValid())
	assert.Empty(t, result.Errors)
}

func TestValidate_MissingRequired(t *testing.T) {
	ds := NewDataset()
	ds.add(&Element{Tag: tag.Rows, VR: vr.US, Value: uint16(2)})

	result := Validate(ds, ViewerRequirements)
	assert.False(t, result.IsValid())

	var missing []Tag
	for _, e := range result.Errors {
		missing = append(missing, e.Tag)
	}
	assert.Contains(t, missing, tag.Columns)
	assert.Contains(t, missing, tag.BitsAllocated)
	assert.Contains(t, missing, tag.PixelData)
}

func TestValidate_EmptyRequired(t *testing.T) {
	ds := NewDataset()
	ds.add(&Element{Tag: tag.Rows, VR: vr.US, Value: nil})

	result := Validate(ds, []Requirement{{Tag: tag.Rows, Type: Type1}})
	require.Len(t, result.Errors, 1)
	assert.True(t, result.Errors[0].IsCritical)
	assert.Contains(t, result.Errors[0].Error(), "Type 1")
}

func TestValidate_ConditionalPalette(t *testing.T) {
	ds := NewDataset()
	ds.add(&Element{Tag: tag.PhotometricInterpretation, VR: vr.CS, Value: "PALETTE COLOR"})

	result := Validate(ds, []Requirement{
		{Tag: tag.RedPaletteColorLookupTableData, Type: Type1C, Condition: isPalette},
	})
	assert.False(t, result.IsValid())

	// not a palette image: the condition waives the requirement
	ds2 := NewDataset()
	ds2.add(&Element{Tag: tag.PhotometricInterpretation, VR: vr.CS, Value: "MONOCHROME2"})
	result = Validate(ds2, []Requirement{
		{Tag: tag.RedPaletteColorLookupTableData, Type: Type1C, Condition: isPalette},
	})
	assert.True(t, result.IsValid())
}

func TestValidate_Type2Warns(t *testing.T) {
	ds := NewDataset()
	result := Validate(ds, []Requirement{{Tag: tag.SOPInstanceUID, Type: Type2}})

	assert.True(t, result.IsValid(), "type 2 findings are warnings")
	assert.Len(t, result.Warnings, 1)
}
