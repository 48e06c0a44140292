// Package tag defines the DICOM tags the viewer core cares about
package tag

import "fmt"

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Equals compares two tags
func (t Tag) Equals(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// Less orders tags by (group, element) ascending, the file order of a dataset
func (t Tag) Less(other Tag) bool {
	if t.Group != other.Group {
		return t.Group < other.Group
	}
	return t.Element < other.Element
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsFileMeta returns true if this tag is in the File Meta Information group
func (t Tag) IsFileMeta() bool {
	return t.Group == 0x0002
}

// IsDelimiter returns true for the item/sequence delimitation tags (group FFFE)
func (t Tag) IsDelimiter() bool {
	return t.Group == 0xFFFE
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// File Meta Information (Group 0002)
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
)

// SOP Common Module
var (
	SpecificCharacterSet = Tag{0x0008, 0x0005}
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	Modality             = Tag{0x0008, 0x0060}
)

// Identification, used by the info command output
var (
	PatientName       = Tag{0x0010, 0x0010}
	PatientID         = Tag{0x0010, 0x0020}
	StudyInstanceUID  = Tag{0x0020, 0x000D}
	SeriesInstanceUID = Tag{0x0020, 0x000E}
	InstanceNumber    = Tag{0x0020, 0x0013}
	StudyDescription  = Tag{0x0008, 0x1030}
	SeriesDescription = Tag{0x0008, 0x103E}
)

// Image Pixel Module (Group 0028)
var (
	SamplesPerPixel           = Tag{0x0028, 0x0002}
	PhotometricInterpretation = Tag{0x0028, 0x0004}
	PlanarConfiguration       = Tag{0x0028, 0x0006}
	NumberOfFrames            = Tag{0x0028, 0x0008}
	Rows                      = Tag{0x0028, 0x0010}
	Columns                   = Tag{0x0028, 0x0011}
	PixelSpacing              = Tag{0x0028, 0x0030}
	BitsAllocated             = Tag{0x0028, 0x0100}
	BitsStored                = Tag{0x0028, 0x0101}
	HighBit                   = Tag{0x0028, 0x0102}
	PixelRepresentation       = Tag{0x0028, 0x0103}
)

// VOI LUT / Modality LUT Module
var (
	WindowCenter     = Tag{0x0028, 0x1050}
	WindowWidth      = Tag{0x0028, 0x1051}
	RescaleIntercept = Tag{0x0028, 0x1052}
	RescaleSlope     = Tag{0x0028, 0x1053}
	RescaleType      = Tag{0x0028, 0x1054}
	VOILUTFunction   = Tag{0x0028, 0x1056}
)

// Palette Color Lookup Table Module
var (
	RedPaletteColorLookupTableDescriptor   = Tag{0x0028, 0x1101}
	GreenPaletteColorLookupTableDescriptor = Tag{0x0028, 0x1102}
	BluePaletteColorLookupTableDescriptor  = Tag{0x0028, 0x1103}
	RedPaletteColorLookupTableData         = Tag{0x0028, 0x1201}
	GreenPaletteColorLookupTableData       = Tag{0x0028, 0x1202}
	BluePaletteColorLookupTableData        = Tag{0x0028, 0x1203}
)

// Pixel Data and encapsulation delimiters
var (
	PixelData                = Tag{0x7FE0, 0x0010}
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)
