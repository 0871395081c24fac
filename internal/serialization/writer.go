package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer builds a model file in memory: layers are appended with BeginLayer
// followed by their parameters, then WriteTo emits header and body.
type Writer struct {
	body   bytes.Buffer
	layers uint32
	buf    [8]byte
}

// NewWriter creates an empty model writer.
func NewWriter() *Writer {
	return &Writer{}
}

// BeginLayer starts a new layer record with the given kind tag.
func (w *Writer) BeginLayer(kind uint32) {
	w.layers++
	w.PutUint32(kind)
}

// LayerCount returns the number of layers started so far.
func (w *Writer) LayerCount() uint32 {
	return w.layers
}

// PutUint32 appends one unsigned 32-bit integer.
func (w *Writer) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.body.Write(w.buf[:4])
}

// PutFloat32 appends one float32.
func (w *Writer) PutFloat32(v float32) {
	w.PutUint32(math.Float32bits(v))
}

// PutFloat32s appends every value of vs.
func (w *Writer) PutFloat32s(vs []float32) {
	for _, v := range vs {
		w.PutFloat32(v)
	}
}

// Body returns the encoded layer stream (without header).
func (w *Writer) Body() []byte {
	return w.body.Bytes()
}

// WriteTo writes the model in the current format version (v2, checksummed).
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	return w.WriteVersion(out, FormatVersionV2)
}

// WriteVersion writes the model using the given format version.
func (w *Writer) WriteVersion(out io.Writer, version uint32) (int64, error) {
	var head bytes.Buffer
	head.WriteString(MagicBytes)

	var b [8]byte
	binary.LittleEndian.PutUint32(b[:4], version)
	head.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], w.layers)
	head.Write(b[:4])

	switch version {
	case FormatVersion:
	case FormatVersionV2:
		binary.LittleEndian.PutUint64(b[:], uint64(w.body.Len()))
		head.Write(b[:])
		sum := ComputeChecksum(w.body.Bytes())
		head.Write(sum[:])
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	n, err := out.Write(head.Bytes())
	total := int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to write header: %w", err)
	}
	n, err = out.Write(w.body.Bytes())
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to write body: %w", err)
	}
	return total, nil
}
