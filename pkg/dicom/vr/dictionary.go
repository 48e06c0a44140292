package vr

import "github.com/jpfielding/dicomview.go/pkg/dicom/tag"

// Implicit VR transfer syntaxes omit the VR from the stream, so it has to
// come from a dictionary keyed by tag. This table covers the attributes the
// viewer pipeline consumes; anything else decodes as UN (raw bytes), which
// is the standard fallback for unrecognized tags.
var dict = map[tag.Tag]VR{
	tag.FileMetaInformationGroupLength: UL,
	tag.FileMetaInformationVersion:     OB,
	tag.MediaStorageSOPClassUID:        UI,
	tag.MediaStorageSOPInstanceUID:     UI,
	tag.TransferSyntaxUID:              UI,
	tag.ImplementationClassUID:         UI,
	tag.ImplementationVersionName:      SH,

	tag.SpecificCharacterSet: CS,
	tag.SOPClassUID:          UI,
	tag.SOPInstanceUID:       UI,
	tag.Modality:             CS,
	tag.StudyDescription:     LO,
	tag.SeriesDescription:    LO,

	tag.PatientName:       PN,
	tag.PatientID:         LO,
	tag.StudyInstanceUID:  UI,
	tag.SeriesInstanceUID: UI,
	tag.InstanceNumber:    IS,

	tag.SamplesPerPixel:           US,
	tag.PhotometricInterpretation: CS,
	tag.PlanarConfiguration:       US,
	tag.NumberOfFrames:            IS,
	tag.Rows:                      US,
	tag.Columns:                   US,
	tag.PixelSpacing:              DS,
	tag.BitsAllocated:             US,
	tag.BitsStored:                US,
	tag.HighBit:                   US,
	tag.PixelRepresentation:       US,

	tag.WindowCenter:     DS,
	tag.WindowWidth:      DS,
	tag.RescaleIntercept: DS,
	tag.RescaleSlope:     DS,
	tag.RescaleType:      LO,
	tag.VOILUTFunction:   CS,

	tag.RedPaletteColorLookupTableDescriptor:   US,
	tag.GreenPaletteColorLookupTableDescriptor: US,
	tag.BluePaletteColorLookupTableDescriptor:  US,
	tag.RedPaletteColorLookupTableData:         OW,
	tag.GreenPaletteColorLookupTableData:       OW,
	tag.BluePaletteColorLookupTableData:        OW,

	tag.PixelData: OW,
}

// ForTag returns the VR for a tag under implicit VR encoding.
// Unknown tags fall back to UN.
func ForTag(t tag.Tag) VR {
	if v, ok := dict[t]; ok {
		return v
	}
	// Group length elements are UL across all groups
	if t.Element == 0x0000 {
		return UL
	}
	return UN
}
