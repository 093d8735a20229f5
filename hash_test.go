package pup

import (
	"strings"
	"testing"
)

func TestVerifyFreshBuild(t *testing.T) {
	key := []byte("platform key")
	payloads := samplePayloads()
	_, raw := mustBuild(t, payloads, WithDigester(NewHMACSHA1(key)))

	pkg, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	report, err := pkg.Verify(NewHMACSHA1(key))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !report.OK() {
		t.Fatalf("fresh build fails verification: %v", report.Failed())
	}
	if len(report.Checks) != len(payloads)+1 {
		t.Fatalf("report has %d checks, want %d", len(report.Checks), len(payloads)+1)
	}
	if !report.Checks[0].Header {
		t.Error("check 0 is not the header check")
	}
	for i, p := range payloads {
		c := report.Checks[i+1]
		if c.Header || c.ID != p.ID || c.Index != i+1 {
			t.Errorf("check %d = {Header: %v, ID: %#x, Index: %d}, want segment %#x",
				i+1, c.Header, uint64(c.ID), c.Index, uint64(p.ID))
		}
	}
}

func TestVerifyDetectsSingleByteCorruption(t *testing.T) {
	payloads := samplePayloads()
	_, raw := mustBuild(t, payloads)

	for i, p := range payloads {
		if len(p.Data) == 0 {
			continue // nothing to corrupt
		}
		pkg, err := Read(raw)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		off := pkg.EntryAt(i).Offset + uint64(len(p.Data))/2

		bad := make([]byte, len(raw))
		copy(bad, raw)
		bad[off] ^= 0x01

		corrupted, err := Read(bad)
		if err != nil {
			t.Fatalf("Read corrupted: %v", err)
		}
		report, err := corrupted.Verify(NewHMACSHA1(nil))
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}

		// Exactly this segment's entry must fail, and no others.
		for j, c := range report.Checks {
			wantOK := j != i+1
			if c.OK != wantOK {
				t.Errorf("segment %d corrupted: check %d OK = %v, want %v", i, j, c.OK, wantOK)
			}
		}
	}
}

func TestVerifyDetectsTableCorruption(t *testing.T) {
	_, raw := mustBuild(t, samplePayloads())

	// Flip a bit in an entry's flags field: still structurally valid, but
	// the header+table digest (entry 0) must fail while every segment
	// digest still passes.
	bad := make([]byte, len(raw))
	copy(bad, raw)
	bad[fixedHeaderSize+24] ^= 0x80

	pkg, err := Read(bad)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	report, err := pkg.Verify(NewHMACSHA1(nil))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for j, c := range report.Checks {
		wantOK := j != 0
		if c.OK != wantOK {
			t.Errorf("check %d OK = %v, want %v", j, c.OK, wantOK)
		}
	}
}

func TestVerifyWrongKeyFailsEverything(t *testing.T) {
	_, raw := mustBuild(t, samplePayloads(), WithDigester(NewHMACSHA1([]byte("right"))))

	pkg, err := Read(raw)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	report, err := pkg.Verify(NewHMACSHA1([]byte("wrong")))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Failed()) != len(report.Checks) {
		t.Errorf("%d of %d checks failed, want all", len(report.Failed()), len(report.Checks))
	}
}

func TestVerifyMismatchIsDataNotError(t *testing.T) {
	_, raw := mustBuild(t, samplePayloads())
	bad := make([]byte, len(raw))
	copy(bad, raw)
	bad[len(bad)-1] ^= 0xFF // corrupt a stored digest

	pkg, err := Read(bad)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	report, err := pkg.Verify(NewHMACSHA1(nil))
	if err != nil {
		t.Fatalf("Verify returned an error on mismatch: %v", err)
	}
	if report.OK() {
		t.Error("corrupted digest passes verification")
	}
}

func TestComputeDigestsOrdering(t *testing.T) {
	// Per-segment digests run concurrently; results must land at their
	// table position regardless.
	d := NewHMACSHA1(nil)
	headerTable := []byte("header and table bytes")
	views := make([][]byte, 32)
	for i := range views {
		views[i] = []byte{byte(i), byte(i >> 1), 0xAA}
	}

	got, err := computeDigests(headerTable, views, d)
	if err != nil {
		t.Fatal(err)
	}
	want, err := d.Sum(headerTable)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != want {
		t.Error("entry 0 is not the header digest")
	}
	for i, v := range views {
		want, err := d.Sum(v)
		if err != nil {
			t.Fatal(err)
		}
		if got[i+1] != want {
			t.Errorf("entry %d out of position", i+1)
		}
	}
}

func TestDigestCheckString(t *testing.T) {
	c := DigestCheck{Header: true, OK: true}
	if got := c.String(); got != "header: ok" {
		t.Errorf("String() = %q", got)
	}
	c = DigestCheck{ID: 0x100, Index: 1}
	if got := c.String(); !strings.Contains(got, "version.txt") || !strings.Contains(got, "MISMATCH") {
		t.Errorf("String() = %q", got)
	}
}
