package pup

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// parseHeader reads the fixed 48-byte prefix. Cross-field invariants
// (HeaderLength vs TotalLength vs input length) are the reader's concern;
// the segment-table length is not known yet at this point.
func parseHeader(data []byte) (Header, error) {
	if len(data) < fixedHeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedHeader, len(data), fixedHeaderSize)
	}
	if !bytes.Equal(data[0:8], Magic[:]) {
		return Header{}, fmt.Errorf("%w: % x", ErrUnknownMagic, data[0:8])
	}
	return Header{
		PackageVersion: binary.BigEndian.Uint64(data[8:16]),
		ImageVersion:   binary.BigEndian.Uint64(data[16:24]),
		SegmentCount:   binary.BigEndian.Uint64(data[24:32]),
		HeaderLength:   binary.BigEndian.Uint64(data[32:40]),
		TotalLength:    binary.BigEndian.Uint64(data[40:48]),
	}, nil
}

func appendHeader(dst []byte, h Header) []byte {
	dst = append(dst, Magic[:]...)
	dst = binary.BigEndian.AppendUint64(dst, h.PackageVersion)
	dst = binary.BigEndian.AppendUint64(dst, h.ImageVersion)
	dst = binary.BigEndian.AppendUint64(dst, h.SegmentCount)
	dst = binary.BigEndian.AppendUint64(dst, h.HeaderLength)
	dst = binary.BigEndian.AppendUint64(dst, h.TotalLength)
	return dst
}

// parseSegmentTable reads count 32-byte records starting at data[at].
func parseSegmentTable(data []byte, at uint64, count uint64) ([]SegmentEntry, error) {
	need := count * segEntrySize
	if uint64(len(data)) < at || uint64(len(data))-at < need {
		return nil, fmt.Errorf("%w: segment table needs %d bytes at offset %d", ErrTruncatedInput, need, at)
	}
	entries := make([]SegmentEntry, count)
	for i := range entries {
		rec := data[at+uint64(i)*segEntrySize:]
		entries[i] = SegmentEntry{
			ID:     SegmentID(binary.BigEndian.Uint64(rec[0:8])),
			Offset: binary.BigEndian.Uint64(rec[8:16]),
			Size:   binary.BigEndian.Uint64(rec[16:24]),
			Flags:  binary.BigEndian.Uint64(rec[24:32]),
		}
	}
	return entries, nil
}

// appendSegmentTable writes records in the given order. The order is
// preserved verbatim: it determines both on-disk layout and which hash
// table entry corresponds to which segment.
func appendSegmentTable(dst []byte, entries []SegmentEntry) []byte {
	for _, e := range entries {
		dst = binary.BigEndian.AppendUint64(dst, uint64(e.ID))
		dst = binary.BigEndian.AppendUint64(dst, e.Offset)
		dst = binary.BigEndian.AppendUint64(dst, e.Size)
		dst = binary.BigEndian.AppendUint64(dst, e.Flags)
	}
	return dst
}

// sliceSegment returns the borrowed payload view data[Offset:Offset+Size].
// The reader's bounds cross-check excludes out-of-range entries before
// this is called, so a failure here means a codec bug, not bad input.
func sliceSegment(data []byte, e SegmentEntry) ([]byte, error) {
	if e.Offset > uint64(len(data)) || e.Size > uint64(len(data))-e.Offset {
		return nil, fmt.Errorf("%w: segment %#x [%d, +%d) outside %d-byte buffer",
			ErrSegmentOutOfBounds, uint64(e.ID), e.Offset, e.Size, len(data))
	}
	return data[e.Offset : e.Offset+e.Size : e.Offset+e.Size], nil
}
