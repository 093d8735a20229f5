package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSegmentFileRoundTrip_AllCodecs(t *testing.T) {
	payload := bytes.Repeat([]byte("firmware segment bytes "), 200)
	dir := t.TempDir()

	for _, ext := range []string{"", ".zst", ".gz", ".lz4", ".br"} {
		t.Run("ext="+ext, func(t *testing.T) {
			path := filepath.Join(dir, "seg.bin"+ext)
			if err := writeSegmentFile(path, payload); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := readSegmentFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatal("payload mismatch after round trip")
			}

			if ext != "" {
				stored, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				if bytes.Equal(stored, payload) {
					t.Error("file on disk is not compressed")
				}
			}
		})
	}
}

func TestSegmentFileStem(t *testing.T) {
	cases := map[string]string{
		"update_files.tar":         "update_files.tar",
		"out/update_files.tar.zst": "update_files.tar",
		"/a/b/version.txt.gz":      "version.txt",
		"ps3swu.self.br":           "ps3swu.self",
		"plain.bin":                "plain.bin",
		"archive.lz4":              "archive",
		"noext":                    "noext",
	}
	for in, want := range cases {
		if got := segmentFileStem(in); got != want {
			t.Errorf("segmentFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}
