// Package dicom decodes in-memory DICOM files for display.
//
// The pipeline is: Parse indexes the element stream into a Dataset,
// Describe derives the image descriptor from it, and DecodeFrames turns
// the pixel-data element into per-frame sample grids ready for windowing.
//
//	ds, err := dicom.Parse(fileBytes)
//	if err != nil {
//		log.Fatal(err)
//	}
//	grids, err := dicom.DecodeFrames(ds)
//
// Native 8 and 16 bit pixel data decodes directly; encapsulated pixel data
// goes through the Decompressor registry keyed by transfer syntax UID, with
// RLE Lossless built in. Acquisition (files, network) and painting are the
// caller's concern; this package only consumes and produces byte buffers.
package dicom

import (
	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomview.go/pkg/util"
)

// Fingerprint returns a stable identifier for a parsed dataset, preferring
// the SOP Instance UID and falling back to a content hash of the tag list.
func Fingerprint(ds *Dataset) string {
	ids := struct {
		SOPInstance string
		Syntax      string
		Tags        []Tag
	}{
		Syntax: string(ds.TransferSyntax),
	}
	if uid, ok := ds.GetString(tag.SOPInstanceUID); ok {
		ids.SOPInstance = uid
	} else {
		ids.Tags = ds.Tags()
	}
	return util.HashUUID(ids)
}
