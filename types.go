package pup

import "encoding/hex"

const (
	fixedHeaderSize = 48
	segEntrySize    = 32

	// DigestSize is the width of every hash-table entry.
	DigestSize = 20
)

// Magic is the 8-byte PUP file signature.
var Magic = [8]byte{'S', 'C', 'E', 'U', 'F', 0, 0, 0}

// PackageVersionV1 is the only package version known producers write.
const PackageVersionV1 uint64 = 1

// Digest is a fixed-width integrity value from the trailing hash table.
type Digest [DigestSize]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// SegmentID identifies a segment within a package. Uniqueness is
// conventional, not structurally enforced.
type SegmentID uint64

// segmentNames maps well-known segment IDs to their conventional file names.
var segmentNames = map[SegmentID]string{
	0x100: "version.txt",
	0x101: "license.xml",
	0x102: "promo_flags.txt",
	0x103: "update_flags.txt",
	0x104: "patch_build.txt",
	0x200: "ps3swu.self",
	0x201: "vsh.tar",
	0x202: "dots.txt",
	0x203: "patch_data.pkg",
	0x300: "update_files.tar",
	0x501: "spkg_hdr.tar",
	0x601: "ps3swu2.self",
}

// Name returns the conventional file name for well-known segment IDs, or
// "" if the ID has no known name.
func (id SegmentID) Name() string {
	return segmentNames[id]
}

// SegmentIDByName is the inverse of [SegmentID.Name].
func SegmentIDByName(name string) (SegmentID, bool) {
	for id, n := range segmentNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Header is the fixed 48-byte prefix of a package. The magic bytes are
// implicit: parsing rejects inputs whose magic differs from [Magic], and
// serialization always writes [Magic].
type Header struct {
	// PackageVersion and ImageVersion are opaque version identifiers.
	// Neither is interpreted by the codec.
	PackageVersion uint64
	ImageVersion   uint64

	// SegmentCount is the number of records in the segment table.
	SegmentCount uint64

	// HeaderLength is the byte length of the header plus segment table;
	// segment payload data begins here.
	HeaderLength uint64

	// TotalLength is the byte length of header, table, and all payload
	// data; the trailing hash table begins here.
	TotalLength uint64
}

// SegmentEntry is one 32-byte record of the segment table.
type SegmentEntry struct {
	ID SegmentID

	// Offset is absolute from the start of the package.
	Offset uint64
	Size   uint64

	// Flags is opaque and passed through unchanged. Known producers use
	// it for the segment's signature kind.
	Flags uint64
}

// Payload is one (identifier, bytes) pair supplied to [Build]. The builder
// takes ownership of Data; callers must not mutate it afterwards.
type Payload struct {
	ID    SegmentID
	Flags uint64
	Data  []byte
}

// Package is a parsed PUP container. It is immutable once constructed —
// by [Read] from bytes, or by [Build] from payloads — and is safe for
// concurrent readers. Any change requires rebuilding: payload sizes
// determine the hash table's location, so there is no in-place mutation.
type Package struct {
	header  Header
	entries []SegmentEntry
	views   [][]byte // payload bytes, table order, windows into raw
	byID    map[SegmentID]int
	hashes  []Digest // len == SegmentCount+1; entry 0 covers [0, HeaderLength)
	raw     []byte   // the full serialized package
}

// Header returns the package header.
func (p *Package) Header() Header {
	return p.header
}

// NumSegments returns the number of segment-table entries.
func (p *Package) NumSegments() int {
	return len(p.entries)
}

// Entries returns a copy of the segment table in on-disk order.
func (p *Package) Entries() []SegmentEntry {
	out := make([]SegmentEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// EntryAt returns the i-th segment-table record.
func (p *Package) EntryAt(i int) SegmentEntry {
	return p.entries[i]
}

// DataAt returns the payload bytes of the i-th table entry. The returned
// slice is a window into the package's backing buffer; callers must treat
// it as read-only.
func (p *Package) DataAt(i int) []byte {
	return p.views[i]
}

// Data returns the payload bytes for the given segment ID. If the table
// holds duplicate IDs the first entry in table order wins. The returned
// slice is a window into the package's backing buffer; callers must treat
// it as read-only.
func (p *Package) Data(id SegmentID) ([]byte, bool) {
	i, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	return p.views[i], true
}

// HashTable returns a copy of the trailing digest table: entry 0 covers
// the header and segment table, entry k (k ≥ 1) covers the k-th segment
// in table order.
func (p *Package) HashTable() []Digest {
	out := make([]Digest, len(p.hashes))
	copy(out, p.hashes)
	return out
}

// Bytes returns the serialized package. The slice is the package's
// backing buffer; callers must treat it as read-only.
func (p *Package) Bytes() []byte {
	return p.raw
}
