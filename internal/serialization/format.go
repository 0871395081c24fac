package serialization

// Format constants.
const (
	MagicBytes      = "PKTM"
	FormatVersion   = 1  // v1: header followed directly by the layer stream
	FormatVersionV2 = 2  // v2: body size and SHA-256 checksum precede the layer stream
	ChecksumSize    = 32 // SHA-256 checksum size (32 bytes)
)

// Header is the fixed prefix of a model file.
//
//	v1: [4 bytes: Magic "PKTM"] [uint32 version] [uint32 layer count]
//	v2: v1 fields + [uint64 body size] [32 bytes: SHA-256 of body]
//
// The body is a sequence of layers, each a uint32 kind tag followed by the
// kind's parameters. All integers and floats are little-endian.
type Header struct {
	Version    uint32
	LayerCount uint32
	BodySize   uint64             // v2 only
	Checksum   [ChecksumSize]byte // v2 only
}
