// Package serialization reads and writes the binary model format.
//
// A model file is a short header followed by a layer stream:
//
//	Format Structure (v2):
//	  [4 bytes: Magic "PKTM"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Layer count (uint32 LE)]
//	  [8 bytes: Body size (uint64 LE)]
//	  [32 bytes: SHA-256 of body]
//	  [Body: per layer, uint32 kind tag + kind-specific fields]
//
// Version 1 omits body size and checksum and streams the body directly.
//
// Example usage:
//
//	w := serialization.NewWriter()
//	w.BeginLayer(3) // AveragePooling1D
//	w.PutUint32(2)  // pool size
//	if _, err := w.WriteTo(file); err != nil {
//	    log.Fatal(err)
//	}
//
//	header, r, err := serialization.OpenModel(file, serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	kind, err := r.ReadUint32()
package serialization
