package pup

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"github.com/zeebo/blake3"
)

// Digester computes the fixed-width digests stored in the hash table. The
// codec never picks a digest algorithm itself: the provider is injected by
// the caller, and key material comes with it. Implementations must be
// stateless (safe for concurrent Sum calls); digest computation over
// distinct segments is parallelized.
type Digester interface {
	Sum(data []byte) (Digest, error)
}

type hmacDigester struct {
	newHash func() hash.Hash
}

func (d hmacDigester) Sum(data []byte) (Digest, error) {
	h := d.newHash()
	h.Write(data)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}

// NewHMACSHA1 returns the format's native digest provider: HMAC-SHA1 with
// the given key. A nil key yields the unkeyed variant used by tooling that
// has no platform key.
func NewHMACSHA1(key []byte) Digester {
	return hmacDigester{newHash: func() hash.Hash { return hmac.New(sha1.New, key) }}
}

// NewHMACSHA256 returns an HMAC-SHA256 provider, truncated to [DigestSize]
// bytes to fit the hash-table entry width.
func NewHMACSHA256(key []byte) Digester {
	return hmacDigester{newHash: func() hash.Hash { return hmac.New(sha256.New, key) }}
}

type blake3Digester struct {
	key []byte // nil for unkeyed, else exactly 32 bytes
}

func (d blake3Digester) Sum(data []byte) (Digest, error) {
	var h *blake3.Hasher
	if d.key == nil {
		h = blake3.New()
	} else {
		var err error
		h, err = blake3.NewKeyed(d.key)
		if err != nil {
			return Digest{}, err
		}
	}
	h.Write(data)
	var out Digest
	dr := h.Digest()
	dr.Read(out[:])
	return out, nil
}

// NewBLAKE3 returns a keyed BLAKE3 provider producing [DigestSize]-byte
// digests via the XOF. Not part of the wire format; useful for fast
// content addressing in tooling and as a deterministic stand-in in tests.
// Keys of any length are accepted: non-empty keys are stretched to the
// 32 bytes BLAKE3 keyed mode requires.
func NewBLAKE3(key []byte) Digester {
	if len(key) == 0 {
		return blake3Digester{}
	}
	k := make([]byte, 32)
	blake3.DeriveKey("go-pup 2026 hash table digest", key, k)
	return blake3Digester{key: k}
}
