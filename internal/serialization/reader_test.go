package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Scalars(t *testing.T) {
	w := NewWriter()
	w.PutUint32(7)
	w.PutFloat32(-1.5)
	w.PutFloat32s([]float32{1, 2, 3})

	r := NewReader(bytes.NewReader(w.Body()))

	u, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), u)

	f, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(-1.5), f)

	fs, err := r.ReadFloat32s(3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, fs)

	assert.Equal(t, int64(20), r.Offset())
}

func TestReader_ReadUint64(t *testing.T) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], 1<<40+5)

	v, err := NewReader(bytes.NewReader(b[:])).ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40+5), v)
}

func TestReader_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"empty uint32", nil, func(r *Reader) error { _, err := r.ReadUint32(); return err }},
		{"short uint32", []byte{1, 2}, func(r *Reader) error { _, err := r.ReadUint32(); return err }},
		{"short float32", []byte{1}, func(r *Reader) error { _, err := r.ReadFloat32(); return err }},
		{"short uint64", []byte{1, 2, 3, 4}, func(r *Reader) error { _, err := r.ReadUint64(); return err }},
		{"short vector", make([]byte, 11), func(r *Reader) error { _, err := r.ReadFloat32s(3); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(bytes.NewReader(tt.data)))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTruncated)
		})
	}
}

func TestReader_ReadFloat32sLimits(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))

	_, err := r.ReadFloat32s(-1)
	require.Error(t, err)

	_, err = r.ReadFloat32s(MaxParameters + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyParameters)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "too_many_parameters", verr.Type)
}

// allocatedBytes reports the heap bytes allocated while running fn.
func allocatedBytes(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestReader_HugeCountTruncatedStaysBounded(t *testing.T) {
	const limit = 1 << 20
	n := 1 << 28 // a 1 GiB claim backed by 8 bytes

	t.Run("unknown size", func(t *testing.T) {
		var err error
		alloc := allocatedBytes(func() {
			_, err = NewReader(bytes.NewReader(make([]byte, 8))).ReadFloat32s(n)
		})
		assert.ErrorIs(t, err, ErrTruncated)
		assert.Less(t, alloc, uint64(limit), "allocated %d bytes", alloc)
	})

	t.Run("known size", func(t *testing.T) {
		var err error
		alloc := allocatedBytes(func() {
			_, err = NewBytesReader(make([]byte, 8)).ReadFloat32s(n)
		})
		assert.ErrorIs(t, err, ErrTruncated)
		assert.Contains(t, err.Error(), "8 bytes left")
		assert.Less(t, alloc, uint64(limit), "allocated %d bytes", alloc)
	})
}

func TestReader_ReadFloat32sAcrossChunks(t *testing.T) {
	want := make([]float32, chunkSize/4*2+3)
	for i := range want {
		want[i] = float32(i) * 0.5
	}
	w := NewWriter()
	w.PutFloat32s(want)

	r := NewBytesReader(w.Body())
	got, err := r.ReadFloat32s(len(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(4*len(want)), r.Offset())
}

func TestOpenModel_HugeBodyTruncatedStaysBounded(t *testing.T) {
	var head bytes.Buffer
	head.WriteString(MagicBytes)
	_ = binary.Write(&head, binary.LittleEndian, uint32(FormatVersionV2))
	_ = binary.Write(&head, binary.LittleEndian, uint32(1))
	_ = binary.Write(&head, binary.LittleEndian, uint64(MaxBodySize))
	head.Write(make([]byte, ChecksumSize))
	head.Write([]byte{1, 2, 3})

	var err error
	alloc := allocatedBytes(func() {
		_, _, err = OpenModel(bytes.NewReader(head.Bytes()), ReaderOptions{})
	})
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Contains(t, err.Error(), "3 of")
	assert.Less(t, alloc, uint64(1<<20), "allocated %d bytes", alloc)
}

func TestOpenModel_RoundTrip(t *testing.T) {
	for _, version := range []uint32{FormatVersion, FormatVersionV2} {
		w := NewWriter()
		w.BeginLayer(3)
		w.PutUint32(2)
		w.BeginLayer(4)

		var buf bytes.Buffer
		_, err := w.WriteVersion(&buf, version)
		require.NoError(t, err)

		h, r, err := OpenModel(&buf, ReaderOptions{})
		require.NoError(t, err, "version %d", version)
		assert.Equal(t, version, h.Version)
		assert.Equal(t, uint32(2), h.LayerCount)

		for _, want := range []uint32{3, 2, 4} {
			got, err := r.ReadUint32()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		_, err = r.ReadUint32()
		assert.ErrorIs(t, err, ErrTruncated)
	}
}

func TestOpenModel_Errors(t *testing.T) {
	valid := func() []byte {
		w := NewWriter()
		w.BeginLayer(4)
		var buf bytes.Buffer
		_, err := w.WriteTo(&buf)
		require.NoError(t, err)
		return buf.Bytes()
	}

	t.Run("empty", func(t *testing.T) {
		_, _, err := OpenModel(bytes.NewReader(nil), ReaderOptions{})
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := valid()
		copy(data, "BORN")
		_, _, err := OpenModel(bytes.NewReader(data), ReaderOptions{})
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		data := valid()
		binary.LittleEndian.PutUint32(data[4:], 9)
		_, _, err := OpenModel(bytes.NewReader(data), ReaderOptions{})
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("too many layers", func(t *testing.T) {
		data := valid()
		binary.LittleEndian.PutUint32(data[8:], MaxLayerCount+1)
		_, _, err := OpenModel(bytes.NewReader(data), ReaderOptions{})
		assert.ErrorIs(t, err, ErrTooManyLayers)
	})

	t.Run("corrupted body", func(t *testing.T) {
		data := valid()
		data[len(data)-1] ^= 0xff
		_, _, err := OpenModel(bytes.NewReader(data), ReaderOptions{})
		assert.ErrorIs(t, err, ErrChecksumMismatch)

		_, _, err = OpenModel(bytes.NewReader(data), ReaderOptions{SkipChecksumValidation: true})
		assert.NoError(t, err)
	})

	t.Run("truncated body", func(t *testing.T) {
		data := valid()
		_, _, err := OpenModel(bytes.NewReader(data[:len(data)-2]), ReaderOptions{})
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("body too large", func(t *testing.T) {
		data := valid()
		binary.LittleEndian.PutUint64(data[12:], MaxBodySize+1)
		_, _, err := OpenModel(bytes.NewReader(data), ReaderOptions{})
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestWriter_UnsupportedVersion(t *testing.T) {
	_, err := NewWriter().WriteVersion(&bytes.Buffer{}, 7)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Type: "too_many_layers", Field: "layer_count", Details: "got 2, max 1"}
	assert.Equal(t, `too_many_layers: field "layer_count": got 2, max 1`, err.Error())

	err = &ValidationError{Type: "x", Details: "y"}
	assert.Equal(t, "x: y", err.Error())
}
