package pup

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// parseHashTable reads count+1 fixed-width digests starting at data[at].
func parseHashTable(data []byte, at uint64, count uint64) ([]Digest, error) {
	need := (count + 1) * DigestSize
	if uint64(len(data)) < at || uint64(len(data))-at < need {
		return nil, fmt.Errorf("%w: hash table needs %d bytes at offset %d", ErrTruncatedInput, need, at)
	}
	hashes := make([]Digest, count+1)
	for i := range hashes {
		copy(hashes[i][:], data[at+uint64(i)*DigestSize:])
	}
	return hashes, nil
}

func appendHashTable(dst []byte, hashes []Digest) []byte {
	for _, h := range hashes {
		dst = append(dst, h[:]...)
	}
	return dst
}

// computeDigests produces the hash table for the builder: entry 0 over the
// header+table bytes, entries 1..N over each payload in table order.
// Segments have no data dependency between them, so per-segment digests
// run concurrently; results land at their table position.
func computeDigests(headerTable []byte, views [][]byte, d Digester) ([]Digest, error) {
	hashes := make([]Digest, len(views)+1)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		hashes[0], err = d.Sum(headerTable)
		return err
	})
	for i, view := range views {
		i, view := i, view
		g.Go(func() error {
			var err error
			hashes[i+1], err = d.Sum(view)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

// DigestCheck is one entry of a [VerificationReport].
type DigestCheck struct {
	// Header marks the entry covering the header and segment table
	// (hash-table entry 0). For all other entries ID names the segment.
	Header bool
	ID     SegmentID

	// Index is the entry's hash-table position: 0 for the header check,
	// k for the k-th segment in table order.
	Index int

	OK        bool
	Want, Got Digest
}

// String renders the check the way pupctl prints it.
func (c DigestCheck) String() string {
	subject := "header"
	if !c.Header {
		subject = fmt.Sprintf("segment %#x", uint64(c.ID))
		if name := c.ID.Name(); name != "" {
			subject += " (" + name + ")"
		}
	}
	if c.OK {
		return subject + ": ok"
	}
	return fmt.Sprintf("%s: MISMATCH want %s got %s", subject, c.Want, c.Got)
}

// VerificationReport is the outcome of [Package.Verify]: one check per
// hash-table entry, in table order. Mismatches are data, not errors —
// whether any mismatch is fatal is caller policy.
type VerificationReport struct {
	Checks []DigestCheck
}

// OK reports whether every check passed.
func (r VerificationReport) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r VerificationReport) Failed() []DigestCheck {
	var out []DigestCheck
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

// Verify recomputes every hash-table entry with the given provider and
// compares against the stored digests. It is non-destructive and never
// fails on mismatch; the only error source is the provider itself.
func (p *Package) Verify(d Digester) (VerificationReport, error) {
	got, err := computeDigests(p.raw[:p.header.HeaderLength], p.views, d)
	if err != nil {
		return VerificationReport{}, err
	}

	checks := make([]DigestCheck, len(p.hashes))
	for i := range p.hashes {
		c := DigestCheck{
			Index: i,
			Want:  p.hashes[i],
			Got:   got[i],
			OK:    subtle.ConstantTimeCompare(p.hashes[i][:], got[i][:]) == 1,
		}
		if i == 0 {
			c.Header = true
		} else {
			c.ID = p.entries[i-1].ID
		}
		checks[i] = c
	}
	return VerificationReport{Checks: checks}, nil
}
