package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// chunkSize bounds the bytes decoded per step by ReadFloat32s and OpenModel,
// so memory grows with the data actually present rather than a claimed count.
const chunkSize = 64 << 10

// Reader decodes little-endian scalars and vectors from a model stream.
// Every read reports failure through its error; a short stream yields an
// error wrapping ErrTruncated and the destination value must not be used.
type Reader struct {
	r      io.Reader
	offset int64
	size   int64 // Total stream length, or -1 when unknown
	buf    [8]byte
}

// NewReader wraps r. The stream length is unknown.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, size: -1}
}

// NewBytesReader wraps an in-memory body whose length is known, which lets
// reads fail fast when a claimed count exceeds the remaining bytes.
func NewBytesReader(body []byte) *Reader {
	return &Reader{r: bytes.NewReader(body), size: int64(len(body))}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) fill(p []byte, what string) error {
	n, err := io.ReadFull(r.r, p)
	r.offset += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read %s at offset %d: %w", what, r.offset, ErrTruncated)
	}
	return fmt.Errorf("failed to read %s at offset %d: %w", what, r.offset, err)
}

// ReadUint32 reads one unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.buf[:4], "uint32"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// ReadUint64 reads one unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.fill(r.buf[:8], "uint64"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

// ReadFloat32 reads one IEEE-754 single-precision value.
func (r *Reader) ReadFloat32() (float32, error) {
	if err := r.fill(r.buf[:4], "float32"); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.buf[:4])), nil
}

// ReadFloat32s reads n consecutive float32 values.
func (r *Reader) ReadFloat32s(n int) ([]float32, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative float32 count %d", n)
	}
	if err := ValidateParameterCount("float32s", uint64(n)); err != nil {
		return nil, err
	}

	what := fmt.Sprintf("%d float32 values", n)
	if r.size >= 0 && int64(n)*4 > r.size-r.offset {
		return nil, fmt.Errorf("failed to read %s at offset %d: %d bytes left: %w",
			what, r.offset, r.size-r.offset, ErrTruncated)
	}

	raw := make([]byte, min(4*n, chunkSize))
	out := make([]float32, 0, min(n, chunkSize/4))
	for len(out) < n {
		chunk := raw[:min(4*(n-len(out)), len(raw))]
		if err := r.fill(chunk, what); err != nil {
			return nil, err
		}
		for i := 0; i < len(chunk); i += 4 {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(chunk[i:])))
		}
	}
	return out, nil
}

// ReaderOptions configures OpenModel.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip v2 checksum validation (faster but less safe)
}

// OpenModel parses and validates the model header from r and returns a
// Reader positioned at the first layer.
//
// For v2 models the whole body is read up front so its checksum can be
// verified before any layer is decoded.
func OpenModel(r io.Reader, opts ReaderOptions) (Header, *Reader, error) {
	var h Header
	rd := NewReader(r)

	magic := make([]byte, len(MagicBytes))
	if err := rd.fill(magic, "magic bytes"); err != nil {
		return h, nil, err
	}
	if string(magic) != MagicBytes {
		return h, nil, ErrInvalidMagic
	}

	var err error
	if h.Version, err = rd.ReadUint32(); err != nil {
		return h, nil, fmt.Errorf("failed to read version: %w", err)
	}
	if h.LayerCount, err = rd.ReadUint32(); err != nil {
		return h, nil, fmt.Errorf("failed to read layer count: %w", err)
	}

	switch h.Version {
	case FormatVersion:
		if err := ValidateHeader(&h); err != nil {
			return h, nil, fmt.Errorf("validation failed: %w", err)
		}
		return h, rd, nil

	case FormatVersionV2:
		if h.BodySize, err = rd.ReadUint64(); err != nil {
			return h, nil, fmt.Errorf("failed to read body size: %w", err)
		}
		if err := rd.fill(h.Checksum[:], "checksum"); err != nil {
			return h, nil, err
		}
		if err := ValidateHeader(&h); err != nil {
			return h, nil, fmt.Errorf("validation failed: %w", err)
		}

		body, err := rd.readBody(int64(h.BodySize))
		if err != nil {
			return h, nil, err
		}
		if !opts.SkipChecksumValidation {
			if err := ValidateChecksum(body, h.Checksum); err != nil {
				return h, nil, err
			}
		}
		return h, NewBytesReader(body), nil

	default:
		return h, nil, fmt.Errorf("%w: got %d, expected %d or %d",
			ErrUnsupportedVersion, h.Version, FormatVersion, FormatVersionV2)
	}
}

// readBody reads exactly n bytes, growing the buffer in chunkSize steps.
func (r *Reader) readBody(n int64) ([]byte, error) {
	var body bytes.Buffer
	for remaining := n; remaining > 0; {
		step := min(remaining, chunkSize)
		got, err := io.CopyN(&body, r.r, step)
		r.offset += got
		remaining -= got
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to read model body at offset %d: %d of %d bytes: %w",
					r.offset, n-remaining, n, ErrTruncated)
			}
			return nil, fmt.Errorf("failed to read model body at offset %d: %w", r.offset, err)
		}
	}
	return body.Bytes(), nil
}
