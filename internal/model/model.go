// Package model loads binary models and runs their forward pass.
//
// A Model is an ordered list of layers sharing one Dispatcher. Predict feeds
// the caller's tensor to the first layer; each layer's output becomes the
// next layer's input, and the first failing layer aborts the request.
package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/born-ml/pocket/internal/layer"
	"github.com/born-ml/pocket/internal/parallel"
	"github.com/born-ml/pocket/internal/serialization"
	"github.com/born-ml/pocket/internal/simd"
	"github.com/born-ml/pocket/internal/tensor"
)

// Common errors.
var (
	ErrClosed        = errors.New("model is closed")
	ErrNotEncodable  = errors.New("layer cannot be encoded")
	ErrNilInput      = errors.New("input tensor is nil")
	ErrTrailingBytes = errors.New("unexpected data after last layer")
)

// Options configures loading and execution.
type Options struct {
	Parallel     parallel.Config // Worker pool configuration
	SkipChecksum bool            // Skip v2 body checksum validation
	Registry     *layer.Registry // Layer factories; nil means layer.NewRegistry()
	Logger       *slog.Logger    // Diagnostics sink; nil means slog.Default()
}

// DefaultOptions returns options using every host core and all built-in layers.
func DefaultOptions() Options {
	return Options{
		Parallel: parallel.DefaultConfig(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Model is a loaded, ready-to-run layer pipeline.
//
// Predict may be called from multiple goroutines; requests are executed one
// at a time because they share the model's dispatcher.
type Model struct {
	layers     []layer.Layer
	dispatcher *parallel.Dispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	scratch [2]*tensor.Tensor // Ping-pong buffers for intermediate outputs
	closed  bool
}

// New builds a model from already constructed layers and starts its
// dispatcher. The model takes ownership of the layer slice.
func New(layers []layer.Layer, opts Options) *Model {
	return &Model{
		layers:     layers,
		dispatcher: parallel.NewDispatcher(opts.Parallel),
		logger:     opts.logger(),
		scratch:    [2]*tensor.Tensor{tensor.New(), tensor.New()},
	}
}

// Load reads a model from r.
//
// Any parse failure is fatal: no model is returned and the reason is logged
// with the offending layer index.
//
// Example:
//
//	m, err := model.Load(f, model.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
func Load(r io.Reader, opts Options) (*Model, error) {
	logger := opts.logger()

	header, s, err := serialization.OpenModel(r, serialization.ReaderOptions{
		SkipChecksumValidation: opts.SkipChecksum,
	})
	if err != nil {
		logger.Error("model header parse failed", "err", err)
		return nil, fmt.Errorf("failed to open model: %w", err)
	}

	registry := opts.Registry
	if registry == nil {
		registry = layer.NewRegistry()
	}

	layers := make([]layer.Layer, 0, header.LayerCount)
	for i := 0; i < int(header.LayerCount); i++ {
		l, err := registry.Read(s)
		if err != nil {
			logger.Error("layer parse failed", "index", i, "offset", s.Offset(), "err", err)
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}

	// v2 bodies are length-delimited, so leftovers mean a corrupt layer count.
	if header.Version == serialization.FormatVersionV2 && uint64(s.Offset()) != header.BodySize {
		logger.Error("model body not fully consumed", "consumed", s.Offset(), "body_size", header.BodySize)
		return nil, fmt.Errorf("%w: consumed %d of %d bytes", ErrTrailingBytes, s.Offset(), header.BodySize)
	}

	m := New(layers, opts)
	logger.Debug("model loaded",
		"version", header.Version,
		"layers", len(layers),
		"threads", m.dispatcher.Threads(),
		"lanes", simd.Lanes(),
		"unroll", m.dispatcher.Unroll())
	return m, nil
}

// LoadFile reads a model from the file at path.
func LoadFile(path string, opts Options) (*Model, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(bufio.NewReader(f), opts)
}

// Layers returns a copy of the model's layers in execution order.
func (m *Model) Layers() []layer.Layer {
	return slices.Clone(m.layers)
}

// Threads returns the dispatcher's worker count.
func (m *Model) Threads() int {
	return m.dispatcher.Threads()
}

// Predict runs the forward pass on in and returns a newly allocated output.
// The input tensor is never modified.
//
// If a layer rejects its input, the error names the layer index and kind and
// wraps the layer's error (e.g. layer.ErrInvalidShape).
func (m *Model) Predict(in *tensor.Tensor) (*tensor.Tensor, error) {
	if in == nil {
		return nil, ErrNilInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	cur := in
	for i, l := range m.layers {
		out := m.scratch[i%2]
		if err := l.Apply(layer.Data{In: cur, Out: out, Dispatcher: m.dispatcher}); err != nil {
			m.logger.Error("layer apply failed",
				"index", i,
				"kind", l.Kind().String(),
				"dims", cur.Dims().String(),
				"err", err)
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
		}
		cur = out
	}

	return cur.Clone(), nil
}

// Save writes the model in the current format version.
// Every layer must implement layer.Encoder.
func (m *Model) Save(w io.Writer) error {
	return Encode(w, m.layers)
}

// Encode writes layers as a model to w.
func Encode(w io.Writer, layers []layer.Layer) error {
	sw := serialization.NewWriter()
	for i, l := range layers {
		enc, ok := l.(layer.Encoder)
		if !ok {
			return fmt.Errorf("layer %d (%s): %w", i, l.Kind(), ErrNotEncodable)
		}
		sw.BeginLayer(uint32(l.Kind()))
		enc.Encode(sw)
	}

	if _, err := sw.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Close stops the dispatcher. Predict fails with ErrClosed afterwards.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.dispatcher.Close()
}
