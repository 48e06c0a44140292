// Package rle implements the DICOM RLE Lossless codec (PS3.5 Annex G):
// a 64-byte segment header followed by PackBits-compressed byte planes,
// one plane per (sample, byte) pair ordered most significant byte first.
package rle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerSize  = 64
	maxSegments = 15
)

// Decode decompresses one RLE frame into its native little-endian layout:
// pixels × samplesPerPixel interleaved samples of bytesPerSample bytes.
func Decode(data []byte, pixels, samplesPerPixel, bytesPerSample int) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("rle: %d bytes is too short for the segment header", len(data))
	}
	numSegments := int(binary.LittleEndian.Uint32(data[0:4]))
	if numSegments == 0 || numSegments > maxSegments {
		return nil, fmt.Errorf("rle: invalid segment count %d", numSegments)
	}
	want := samplesPerPixel * bytesPerSample
	if numSegments != want {
		return nil, fmt.Errorf("rle: %d segments, want %d for %d sample(s) of %d byte(s)",
			numSegments, want, samplesPerPixel, bytesPerSample)
	}

	offsets := make([]int, numSegments)
	for i := range offsets {
		offsets[i] = int(binary.LittleEndian.Uint32(data[4+i*4 : 8+i*4]))
	}

	segments := make([][]byte, numSegments)
	for i := 0; i < numSegments; i++ {
		start := offsets[i]
		end := len(data)
		if i < numSegments-1 {
			end = offsets[i+1]
		}
		if start < headerSize || end > len(data) || start > end {
			return nil, fmt.Errorf("rle: invalid offsets for segment %d (%d..%d of %d)", i, start, end, len(data))
		}
		decoded, err := decodePackBits(data[start:end], pixels)
		if err != nil {
			return nil, fmt.Errorf("rle: segment %d: %w", i, err)
		}
		if len(decoded) != pixels {
			return nil, fmt.Errorf("rle: segment %d decoded to %d bytes, want %d", i, len(decoded), pixels)
		}
		segments[i] = decoded
	}

	// Reassemble: segment s*bytesPerSample+b holds byte b (MSB first) of
	// sample s; native layout wants little-endian interleaved samples.
	out := make([]byte, pixels*samplesPerPixel*bytesPerSample)
	for s := 0; s < samplesPerPixel; s++ {
		for b := 0; b < bytesPerSample; b++ {
			seg := segments[s*bytesPerSample+b]
			outByte := bytesPerSample - 1 - b // MSB plane lands in the high byte
			for p := 0; p < pixels; p++ {
				out[(p*samplesPerPixel+s)*bytesPerSample+outByte] = seg[p]
			}
		}
	}
	return out, nil
}

// Encode compresses a native little-endian frame into the RLE encapsulated
// layout. The inverse of Decode; primarily exercised by round-trip tests
// and by writers producing RLE Lossless files.
func Encode(raw []byte, pixels, samplesPerPixel, bytesPerSample int) ([]byte, error) {
	if len(raw) != pixels*samplesPerPixel*bytesPerSample {
		return nil, fmt.Errorf("rle: frame has %d bytes, want %d", len(raw), pixels*samplesPerPixel*bytesPerSample)
	}
	numSegments := samplesPerPixel * bytesPerSample
	if numSegments > maxSegments {
		return nil, fmt.Errorf("rle: %d segments exceeds the format limit of %d", numSegments, maxSegments)
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(numSegments))

	var body bytes.Buffer
	for s := 0; s < samplesPerPixel; s++ {
		for b := 0; b < bytesPerSample; b++ {
			seg := s*bytesPerSample + b
			binary.LittleEndian.PutUint32(header[4+seg*4:], uint32(headerSize+body.Len()))
			plane := make([]byte, pixels)
			inByte := bytesPerSample - 1 - b
			for p := 0; p < pixels; p++ {
				plane[p] = raw[(p*samplesPerPixel+s)*bytesPerSample+inByte]
			}
			encoded := encodePackBits(plane)
			body.Write(encoded)
			if len(encoded)%2 != 0 {
				body.WriteByte(0) // segments are padded to even length
			}
		}
	}
	return append(header, body.Bytes()...), nil
}

// encodePackBits compresses one byte plane with the PackBits scheme
func encodePackBits(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		runLen := 1
		for i+runLen < len(data) && runLen < 128 && data[i+runLen] == data[i] {
			runLen++
		}
		if runLen > 1 {
			buf.WriteByte(byte(int8(-(runLen - 1))))
			buf.WriteByte(data[i])
			i += runLen
			continue
		}
		// literal run until a replicate run of 3 starts or 128 bytes pass
		litLen := 1
		for i+litLen < len(data) && litLen < 128 {
			if i+litLen+2 < len(data) &&
				data[i+litLen] == data[i+litLen+1] &&
				data[i+litLen] == data[i+litLen+2] {
				break
			}
			litLen++
		}
		buf.WriteByte(byte(int8(litLen - 1)))
		buf.Write(data[i : i+litLen])
		i += litLen
	}
	return buf.Bytes()
}

// decodePackBits expands one PackBits-compressed segment
func decodePackBits(data []byte, expectedLen int) ([]byte, error) {
	var buf bytes.Buffer
	if expectedLen > 0 {
		buf.Grow(expectedLen)
	}

	i := 0
	for i < len(data) {
		if expectedLen > 0 && buf.Len() >= expectedLen {
			break // trailing pad byte
		}
		n := int8(data[i])
		i++
		switch {
		case n == -128:
			// no-op
		case n >= 0:
			count := int(n) + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("truncated literal run at %d (need %d bytes)", i, count)
			}
			buf.Write(data[i : i+count])
			i += count
		default:
			count := int(-n) + 1
			if i >= len(data) {
				return nil, errors.New("truncated replicate run")
			}
			for k := 0; k < count; k++ {
				buf.WriteByte(data[i])
			}
			i++
		}
	}
	return buf.Bytes(), nil
}
