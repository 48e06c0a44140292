package dicom

import (
	"sync"

	"github.com/jpfielding/dicomview.go/pkg/compress/rle"
	"github.com/jpfielding/dicomview.go/pkg/dicom/transfer"
)

// Decompressor turns one encapsulated frame's byte stream into the native
// little-endian layout described by the image descriptor. Implementations
// for codecs beyond the built-in RLE Lossless are registered by callers.
type Decompressor interface {
	// Decompress expands one frame to rows × columns × samplesPerPixel
	// samples of the descriptor's element size, little endian.
	Decompress(frame []byte, desc *ImageDescriptor) ([]byte, error)
	// Name returns a human-readable codec identifier
	Name() string
}

var (
	decompressorsMu sync.RWMutex
	decompressors   = map[string]Decompressor{
		string(transfer.RLELossless): rleDecompressor{},
	}
)

// RegisterDecompressor installs (or replaces) the decompression capability
// for a transfer syntax UID
func RegisterDecompressor(uid string, d Decompressor) {
	decompressorsMu.Lock()
	defer decompressorsMu.Unlock()
	decompressors[uid] = d
}

// DecompressorFor returns the decompression capability for a transfer
// syntax UID
func DecompressorFor(uid string) (Decompressor, bool) {
	decompressorsMu.RLock()
	defer decompressorsMu.RUnlock()
	d, ok := decompressors[uid]
	return d, ok
}

// rleDecompressor adapts the rle package to the Decompressor contract
type rleDecompressor struct{}

func (rleDecompressor) Decompress(frame []byte, desc *ImageDescriptor) ([]byte, error) {
	return rle.Decode(frame, desc.Rows*desc.Columns, desc.SamplesPerPixel, desc.BytesPerSample())
}

func (rleDecompressor) Name() string {
	return "rle"
}
