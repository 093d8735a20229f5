package pup

// Limits bounds what Read will accept before allocating. Header fields are
// untrusted input: a forged segment count or total length must not be able
// to drive an oversized allocation. Zero-valued fields take defaults.
type Limits struct {
	MaxSegments    uint64
	MaxPackageSize uint64 // TotalLength cap, hash table excluded
}

func defaultLimits() Limits {
	return Limits{
		MaxSegments:    1 << 16,
		MaxPackageSize: 4 << 30, // 4 GiB
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxSegments == 0 {
		l.MaxSegments = d.MaxSegments
	}
	if l.MaxPackageSize == 0 {
		l.MaxPackageSize = d.MaxPackageSize
	}
	return l
}
