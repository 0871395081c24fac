package serialization

import (
	"fmt"
)

// Validation limits for resource protection against malformed models.
const (
	MaxLayerCount = 10_000  // Maximum number of layers in a model
	MaxBodySize   = 1 << 30 // 1GB - maximum v2 body size
	MaxParameters = 1 << 28 // Maximum float32 values in a single layer
)

// ValidateHeader checks header fields against the limits above.
func ValidateHeader(h *Header) error {
	if h.LayerCount > MaxLayerCount {
		return &ValidationError{
			Type:    "too_many_layers",
			Field:   "layer_count",
			Details: fmt.Sprintf("got %d, max %d", h.LayerCount, MaxLayerCount),
			Err:     ErrTooManyLayers,
		}
	}

	if h.Version == FormatVersionV2 && h.BodySize > MaxBodySize {
		return &ValidationError{
			Type:    "body_too_large",
			Field:   "body_size",
			Details: fmt.Sprintf("got %d bytes, max %d", h.BodySize, MaxBodySize),
			Err:     ErrBodyTooLarge,
		}
	}

	return nil
}

// ValidateParameterCount checks that a layer declaring n float32 values for
// field stays within MaxParameters. It must be called before allocating.
func ValidateParameterCount(field string, n uint64) error {
	if n > MaxParameters {
		return &ValidationError{
			Type:    "too_many_parameters",
			Field:   field,
			Details: fmt.Sprintf("got %d, max %d", n, MaxParameters),
			Err:     ErrTooManyParameters,
		}
	}
	return nil
}
