package pup

import (
	"fmt"
	"math"
)

// Build assembles a package from ordered (identifier, payload) pairs.
//
// Payloads are packed contiguously, in the given order, immediately after
// the header and segment table; there is no padding between segments.
// HeaderLength and TotalLength are computed exactly, and the hash table is
// computed over the just-assembled bytes with the configured [Digester].
//
// Build returns both the structured Package and its serialization. The two
// agree by construction: reading the returned bytes yields a Package whose
// header, table, payloads, and hash table equal the ones returned here.
//
// The only failure modes are degenerate input — a payload set whose
// computed lengths overflow the header's integer fields or the address
// space ([ErrPackageTooLarge]), or duplicate IDs under
// [WithStrictSegmentIDs] ([ErrValidation]) — and a failing digest provider.
func Build(imageVersion uint64, payloads []Payload, opts ...BuildOption) (*Package, []byte, error) {
	cfg := buildConfig{
		packageVersion: PackageVersionV1,
		digester:       NewHMACSHA1(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.strictIDs {
		seen := make(map[SegmentID]struct{}, len(payloads))
		for _, p := range payloads {
			if _, ok := seen[p.ID]; ok {
				return nil, nil, fmt.Errorf("%w: duplicate segment ID %#x", ErrValidation, uint64(p.ID))
			}
			seen[p.ID] = struct{}{}
		}
	}

	count := uint64(len(payloads))
	headerLength := uint64(fixedHeaderSize) + count*segEntrySize

	entries := make([]SegmentEntry, len(payloads))
	offset := headerLength
	for i, p := range payloads {
		size := uint64(len(p.Data))
		if size > math.MaxUint64-offset {
			return nil, nil, fmt.Errorf("%w: payload sizes overflow total length", ErrPackageTooLarge)
		}
		entries[i] = SegmentEntry{ID: p.ID, Offset: offset, Size: size, Flags: p.Flags}
		offset += size
	}
	totalLength := offset

	hashTableSize := (count + 1) * DigestSize
	if totalLength > math.MaxUint64-hashTableSize {
		return nil, nil, fmt.Errorf("%w: hash table overflows package size", ErrPackageTooLarge)
	}
	fileSize := totalLength + hashTableSize
	if fileSize > uint64(math.MaxInt) {
		return nil, nil, fmt.Errorf("%w: %d bytes cannot be assembled in memory", ErrPackageTooLarge, fileSize)
	}

	h := Header{
		PackageVersion: cfg.packageVersion,
		ImageVersion:   imageVersion,
		SegmentCount:   count,
		HeaderLength:   headerLength,
		TotalLength:    totalLength,
	}

	// buf is allocated at its final size up front; the append helpers
	// write into it in place.
	buf := make([]byte, fileSize)
	appendSegmentTable(appendHeader(buf[:0], h), entries)
	views := make([][]byte, len(payloads))
	byID := make(map[SegmentID]int, len(payloads))
	for i, p := range payloads {
		e := entries[i]
		copy(buf[e.Offset:], p.Data)
		views[i] = buf[e.Offset : e.Offset+e.Size : e.Offset+e.Size]
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = i
		}
	}

	hashes, err := computeDigests(buf[:headerLength], views, cfg.digester)
	if err != nil {
		return nil, nil, err
	}
	appendHashTable(buf[:totalLength], hashes)

	pkg := &Package{
		header:  h,
		entries: entries,
		views:   views,
		byID:    byID,
		hashes:  hashes,
		raw:     buf,
	}
	return pkg, buf, nil
}
