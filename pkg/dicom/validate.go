package dicom

import (
	"fmt"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

// AttributeType represents DICOM attribute type requirements
type AttributeType int

const (
	// Type1 - Required, must have value
	Type1 AttributeType = 1
	// Type1C - Conditionally required, must have value if the condition holds
	Type1C AttributeType = 2
	// Type2 - Required, may be empty
	Type2 AttributeType = 3
)

// ValidationError represents a single validation finding
type ValidationError struct {
	Tag        Tag
	Type       AttributeType
	Message    string
	IsCritical bool // Type 1 and 1C violations are critical
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Tag, e.typeName(), e.Message)
}

func (e ValidationError) typeName() string {
	switch e.Type {
	case Type1:
		return "Type 1"
	case Type1C:
		return "Type 1C"
	case Type2:
		return "Type 2"
	default:
		return "Unknown"
	}
}

// ValidationResult collects the findings for one dataset
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no critical errors
func (r ValidationResult) IsValid() bool {
	for _, err := range r.Errors {
		if err.IsCritical {
			return false
		}
	}
	return true
}

// Requirement defines one attribute a displayable dataset should carry
type Requirement struct {
	Tag       Tag
	Type      AttributeType
	Condition func(*Dataset) bool // Type 1C only
}

// ViewerRequirements covers the attributes the render pipeline consumes:
// the image pixel module, identification, and the conditional palette and
// planar attributes.
var ViewerRequirements = []Requirement{
	{Tag: tag.Rows, Type: Type1},
	{Tag: tag.Columns, Type: Type1},
	{Tag: tag.BitsAllocated, Type: Type1},
	{Tag: tag.PixelData, Type: Type1},
	{Tag: tag.SOPInstanceUID, Type: Type2},
	{Tag: tag.PhotometricInterpretation, Type: Type2},
	{Tag: tag.PlanarConfiguration, Type: Type1C, Condition: func(ds *Dataset) bool {
		spp, ok := ds.GetInt(tag.SamplesPerPixel)
		return ok && spp > 1
	}},
	{Tag: tag.RedPaletteColorLookupTableData, Type: Type1C, Condition: isPalette},
	{Tag: tag.GreenPaletteColorLookupTableData, Type: Type1C, Condition: isPalette},
	{Tag: tag.BluePaletteColorLookupTableData, Type: Type1C, Condition: isPalette},
}

func isPalette(ds *Dataset) bool {
	pi, ok := ds.GetString(tag.PhotometricInterpretation)
	return ok && pi == PaletteColor
}

// Validate checks a dataset against a requirement set. It reports findings
// rather than failing fast, so callers can surface everything at once.
func Validate(ds *Dataset, requirements []Requirement) ValidationResult {
	var result ValidationResult
	for _, req := range requirements {
		elem, exists := ds.Get(req.Tag)

		switch req.Type {
		case Type1:
			if !exists {
				result.Errors = append(result.Errors, ValidationError{
					Tag: req.Tag, Type: Type1, Message: "required attribute missing", IsCritical: true})
			} else if isEmptyValue(elem) {
				result.Errors = append(result.Errors, ValidationError{
					Tag: req.Tag, Type: Type1, Message: "required attribute is empty", IsCritical: true})
			}

		case Type1C:
			if req.Condition != nil && req.Condition(ds) {
				if !exists || isEmptyValue(elem) {
					result.Errors = append(result.Errors, ValidationError{
						Tag: req.Tag, Type: Type1C, Message: "conditionally required attribute missing", IsCritical: true})
				}
			}

		case Type2:
			if !exists {
				result.Warnings = append(result.Warnings, ValidationError{
					Tag: req.Tag, Type: Type2, Message: "attribute missing (may be empty)"})
			}
		}
	}
	return result
}

func isEmptyValue(elem *Element) bool {
	if elem == nil || elem.Value == nil {
		return true
	}
	switch v := elem.Value.(type) {
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case []uint16:
		return len(v) == 0
	case []*Dataset:
		return len(v) == 0
	default:
		return false
	}
}
