package pup

type readConfig struct {
	limits Limits
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

type buildConfig struct {
	packageVersion uint64
	digester       Digester
	strictIDs      bool
}

type BuildOption func(*buildConfig)

// WithPackageVersion overrides the header's package version, which Build
// otherwise sets to [PackageVersionV1].
func WithPackageVersion(v uint64) BuildOption {
	return func(c *buildConfig) { c.packageVersion = v }
}

// WithDigester selects the digest provider used to populate the hash
// table. The default is unkeyed HMAC-SHA1; production packages want
// [NewHMACSHA1] with the platform key.
func WithDigester(d Digester) BuildOption {
	return func(c *buildConfig) { c.digester = d }
}

// WithStrictSegmentIDs makes Build reject duplicate segment IDs with
// ErrValidation. The format itself does not forbid duplicates.
func WithStrictSegmentIDs(v bool) BuildOption {
	return func(c *buildConfig) { c.strictIDs = v }
}
