// Package pup implements the PUP (PlayStation Update Package) container format.
//
// A PUP file is a flat, non-hierarchical bundle of firmware segments. There
// are no directories: each segment is addressed by a numeric identifier and
// an absolute byte offset/length pair. Well-known identifiers map to
// conventional file names (see [SegmentID.Name]).
//
// # File Format Overview
//
// A PUP file consists of, in order:
//   - A 48-byte fixed header with magic bytes, package and image versions,
//     segment count, and the header/total byte lengths
//   - A segment table of 32-byte descriptor records (id, offset, size, flags)
//   - The raw segment payloads at their declared offsets
//   - A trailing hash table of 20-byte digests: entry 0 covers the header and
//     segment table, entries 1..N cover each segment payload in table order
//
// All multi-byte fields are big-endian. Segment payloads are opaque bytes;
// any internal structure is the concern of firmware-specific tooling.
//
// # Basic Usage
//
// To build a package:
//
//	pkg, raw, err := pup.Build(imageVersion, []pup.Payload{
//		{ID: 0x100, Data: []byte("1.23\n")},
//		{ID: 0x300, Data: updateFiles},
//	})
//	// raw is the serialized package; pkg is its parsed form, and the two
//	// agree by construction.
//
// To read one back:
//
//	pkg, err := pup.Read(raw)
//
// Reading does not check digests. Verification is a separate, explicit step
// so that structurally valid but corrupted packages remain inspectable:
//
//	report, err := pkg.Verify(pup.NewHMACSHA1(key))
//	if !report.OK() { ... }
//
// Digest computation is an injected capability ([Digester]); the format's
// native digest is HMAC-SHA1 with a caller-supplied key.
//
// # Security Considerations
//
// Header fields are attacker-controlled until verified. Decoding enforces
// configurable [Limits] on segment count and package size so a hostile
// header cannot drive oversized allocations. A [Package] is immutable once
// constructed and safe for concurrent readers.
package pup
