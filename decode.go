package pup

import (
	"errors"
	"fmt"
	"math"
)

// Field offsets within the fixed header, used to tag invariant failures.
const (
	segmentCountOff = 24
	headerLengthOff = 32
	totalLengthOff  = 40
)

// Read parses a complete in-memory package.
//
// The parse order is header, segment table, bounds cross-check, segment
// views, hash table. Structural errors are returned as an [*OffsetError]
// wrapping one of [ErrMalformedHeader], [ErrUnknownMagic],
// [ErrTruncatedInput], [ErrSegmentOutOfBounds], or [ErrLimitExceeded].
//
// Read does not check digests: a structurally valid but digest-mismatched
// package is still a meaningfully parseable object. Call [Package.Verify]
// explicitly to check integrity.
//
// The returned Package takes ownership of data. Segment views are windows
// into it, so the caller must not mutate data afterwards.
func Read(data []byte, opts ...ReadOption) (*Package, error) {
	cfg := readConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	h, err := parseHeader(data)
	if err != nil {
		off := uint64(0)
		if errors.Is(err, ErrMalformedHeader) {
			off = uint64(len(data))
		}
		return nil, errAt(off, err)
	}

	if h.SegmentCount > cfg.limits.MaxSegments {
		return nil, errAt(segmentCountOff, fmt.Errorf("%w: %d segments, cap %d",
			ErrLimitExceeded, h.SegmentCount, cfg.limits.MaxSegments))
	}
	if h.TotalLength > cfg.limits.MaxPackageSize {
		return nil, errAt(totalLengthOff, fmt.Errorf("%w: total length %d, cap %d",
			ErrLimitExceeded, h.TotalLength, cfg.limits.MaxPackageSize))
	}

	// Cross-field invariants, checked once everything needed is known:
	// fixed header + table must fit in HeaderLength (producers may pad
	// beyond the exact table end), and the regions must nest within the
	// input. A HeaderLength below the table end would make the payload
	// region overlap the table.
	if h.SegmentCount > (math.MaxUint64-fixedHeaderSize)/segEntrySize {
		return nil, errAt(segmentCountOff, fmt.Errorf("%w: segment count %d overflows table size",
			ErrMalformedHeader, h.SegmentCount))
	}
	tableEnd := fixedHeaderSize + h.SegmentCount*segEntrySize
	if h.HeaderLength < tableEnd {
		return nil, errAt(headerLengthOff, fmt.Errorf("%w: header length %d, segment table ends at %d",
			ErrMalformedHeader, h.HeaderLength, tableEnd))
	}
	if h.HeaderLength > h.TotalLength {
		return nil, errAt(headerLengthOff, fmt.Errorf("%w: header length %d exceeds total length %d",
			ErrMalformedHeader, h.HeaderLength, h.TotalLength))
	}
	if h.TotalLength > uint64(len(data)) {
		return nil, errAt(uint64(len(data)), fmt.Errorf("%w: total length %d, input is %d bytes",
			ErrTruncatedInput, h.TotalLength, len(data)))
	}

	entries, err := parseSegmentTable(data, fixedHeaderSize, h.SegmentCount)
	if err != nil {
		return nil, errAt(uint64(len(data)), err)
	}

	// First offending entry in table order wins; later entries go unchecked.
	for i, e := range entries {
		recOff := uint64(fixedHeaderSize + i*segEntrySize)
		if e.Offset < h.HeaderLength {
			return nil, errAt(recOff, fmt.Errorf("%w: segment %#x offset %d precedes payload region at %d",
				ErrSegmentOutOfBounds, uint64(e.ID), e.Offset, h.HeaderLength))
		}
		if e.Offset > h.TotalLength || e.Size > h.TotalLength-e.Offset {
			return nil, errAt(recOff, fmt.Errorf("%w: segment %#x [%d, +%d) exceeds total length %d",
				ErrSegmentOutOfBounds, uint64(e.ID), e.Offset, e.Size, h.TotalLength))
		}
	}

	views := make([][]byte, len(entries))
	byID := make(map[SegmentID]int, len(entries))
	for i, e := range entries {
		v, err := sliceSegment(data, e)
		if err != nil {
			return nil, errAt(e.Offset, err)
		}
		views[i] = v
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = i
		}
	}

	hashes, err := parseHashTable(data, h.TotalLength, h.SegmentCount)
	if err != nil {
		return nil, errAt(uint64(len(data)), err)
	}

	return &Package{
		header:  h,
		entries: entries,
		views:   views,
		byID:    byID,
		hashes:  hashes,
		raw:     data,
	}, nil
}
