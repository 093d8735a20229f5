// Command pupctl creates, inspects, verifies, and edits PUP firmware
// update packages.
//
// Usage:
//
//	pupctl create  -f pkg.pup [--image-version N]
//	pupctl print   -f pkg.pup
//	pupctl verify  -f pkg.pup [--key HEX] [--digest hmac-sha1|hmac-sha256|blake3]
//	pupctl extract -f pkg.pup -n INDEX -s SEGFILE
//	pupctl insert  -f pkg.pup -n INDEX -s SEGFILE [--id N] [--flags N]
//	pupctl remove  -f pkg.pup -n INDEX
//
// Segment files ending in .zst, .gz, .lz4, or .br are transparently
// compressed on extract and decompressed on insert; the bytes stored in
// the package are always raw.
//
// A package is immutable in memory, so insert and remove rebuild it from
// its payloads and rewrite the file, recomputing offsets and the hash
// table with the configured digest.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	pup "github.com/logicossoftware/go-pup"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "create":
		err = cmdCreate(args)
	case "print":
		err = cmdPrint(args)
	case "verify":
		err = cmdVerify(args)
	case "extract":
		err = cmdExtract(args)
	case "insert":
		err = cmdInsert(args)
	case "remove":
		err = cmdRemove(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pupctl <create|print|verify|extract|insert|remove> [flags]")
}

// commonFlags holds the flags every subcommand shares.
type commonFlags struct {
	fs   *flag.FlagSet
	file string
	key  string
	algo string
}

func newFlags(name string) *commonFlags {
	c := &commonFlags{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.fs.StringVarP(&c.file, "file", "f", "", "PUP file path")
	c.fs.StringVar(&c.key, "key", "", "digest key, hex encoded")
	c.fs.StringVar(&c.algo, "digest", "hmac-sha1", "digest algorithm: hmac-sha1, hmac-sha256, blake3")
	return c
}

func (c *commonFlags) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.file == "" {
		return fmt.Errorf("-f/--file is required")
	}
	return nil
}

func (c *commonFlags) digester() (pup.Digester, error) {
	var key []byte
	if c.key != "" {
		k, err := hex.DecodeString(c.key)
		if err != nil {
			return nil, fmt.Errorf("bad --key: %w", err)
		}
		key = k
	}
	switch c.algo {
	case "hmac-sha1":
		return pup.NewHMACSHA1(key), nil
	case "hmac-sha256":
		return pup.NewHMACSHA256(key), nil
	case "blake3":
		return pup.NewBLAKE3(key), nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", c.algo)
	}
}

func readPackage(path string) (*pup.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pkg, err := pup.Read(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return pkg, nil
}

func writePackage(path string, raw []byte) error {
	return os.WriteFile(path, raw, 0o644)
}

func cmdCreate(args []string) error {
	c := newFlags("create")
	imageVersion := c.fs.Uint64P("image-version", "g", 0, "PUP image version")
	if err := c.parse(args); err != nil {
		return err
	}
	d, err := c.digester()
	if err != nil {
		return err
	}
	_, raw, err := pup.Build(*imageVersion, nil, pup.WithDigester(d))
	if err != nil {
		return err
	}
	return writePackage(c.file, raw)
}

func cmdPrint(args []string) error {
	c := newFlags("print")
	if err := c.parse(args); err != nil {
		return err
	}
	pkg, err := readPackage(c.file)
	if err != nil {
		return err
	}

	h := pkg.Header()
	fmt.Printf("Package version: %#x\n", h.PackageVersion)
	fmt.Printf("Image version:   %#x\n", h.ImageVersion)
	fmt.Printf("[Segments]\n")
	hashes := pkg.HashTable()
	for i, e := range pkg.Entries() {
		label := fmt.Sprintf("ID: %#x", uint64(e.ID))
		if name := e.ID.Name(); name != "" {
			label = name
		}
		fmt.Printf("  [%d] %s\n", i, label)
		fmt.Printf("    Offset: %d\n", e.Offset)
		fmt.Printf("    Size: %d bytes\n", e.Size)
		fmt.Printf("    Flags: %#x\n", e.Flags)
		fmt.Printf("    Hash digest: %s\n", hashes[i+1])
	}
	return nil
}

func cmdVerify(args []string) error {
	c := newFlags("verify")
	if err := c.parse(args); err != nil {
		return err
	}
	pkg, err := readPackage(c.file)
	if err != nil {
		return err
	}
	d, err := c.digester()
	if err != nil {
		return err
	}
	report, err := pkg.Verify(d)
	if err != nil {
		return err
	}
	for _, check := range report.Checks {
		fmt.Println(check)
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d digests mismatch", len(report.Failed()), len(report.Checks))
	}
	return nil
}

func cmdExtract(args []string) error {
	c := newFlags("extract")
	index := c.fs.IntP("index", "n", 0, "segment index")
	segPath := c.fs.StringP("segment", "s", "", "segment file path")
	if err := c.parse(args); err != nil {
		return err
	}
	if *segPath == "" {
		return fmt.Errorf("-s/--segment is required")
	}
	pkg, err := readPackage(c.file)
	if err != nil {
		return err
	}
	if *index < 0 || *index >= pkg.NumSegments() {
		return fmt.Errorf("index %d is out-of-bounds", *index)
	}
	return writeSegmentFile(*segPath, pkg.DataAt(*index))
}

func cmdInsert(args []string) error {
	c := newFlags("insert")
	index := c.fs.IntP("index", "n", 0, "segment index")
	segPath := c.fs.StringP("segment", "s", "", "segment file path")
	idFlag := c.fs.StringP("id", "x", "", "segment ID (default: derived from the file name)")
	flags := c.fs.Uint64("flags", 0, "segment flags")
	if err := c.parse(args); err != nil {
		return err
	}
	if *segPath == "" {
		return fmt.Errorf("-s/--segment is required")
	}

	id, err := segmentIDFor(*idFlag, *segPath)
	if err != nil {
		return err
	}
	data, err := readSegmentFile(*segPath)
	if err != nil {
		return err
	}

	return modifyPackage(c, func(payloads []pup.Payload) ([]pup.Payload, error) {
		if *index < 0 || *index > len(payloads) {
			return nil, fmt.Errorf("index %d is out-of-bounds", *index)
		}
		seg := pup.Payload{ID: id, Flags: *flags, Data: data}
		payloads = append(payloads[:*index], append([]pup.Payload{seg}, payloads[*index:]...)...)
		return payloads, nil
	})
}

func cmdRemove(args []string) error {
	c := newFlags("remove")
	index := c.fs.IntP("index", "n", 0, "segment index")
	if err := c.parse(args); err != nil {
		return err
	}

	return modifyPackage(c, func(payloads []pup.Payload) ([]pup.Payload, error) {
		if len(payloads) == 0 {
			return nil, fmt.Errorf("package has no segments")
		}
		i := *index
		if i >= len(payloads) {
			i = len(payloads) - 1
		}
		return append(payloads[:i], payloads[i+1:]...), nil
	})
}

// modifyPackage reads the package, hands its payloads to f, and rebuilds
// and rewrites the file from the result.
func modifyPackage(c *commonFlags, f func([]pup.Payload) ([]pup.Payload, error)) error {
	pkg, err := readPackage(c.file)
	if err != nil {
		return err
	}
	payloads := make([]pup.Payload, pkg.NumSegments())
	for i := range payloads {
		e := pkg.EntryAt(i)
		payloads[i] = pup.Payload{ID: e.ID, Flags: e.Flags, Data: pkg.DataAt(i)}
	}
	payloads, err = f(payloads)
	if err != nil {
		return err
	}
	d, err := c.digester()
	if err != nil {
		return err
	}
	_, raw, err := pup.Build(pkg.Header().ImageVersion, payloads,
		pup.WithDigester(d),
		pup.WithPackageVersion(pkg.Header().PackageVersion))
	if err != nil {
		return err
	}
	return writePackage(c.file, raw)
}

// segmentIDFor resolves the ID for an inserted segment: an explicit --id
// value wins (well-known file name or number), otherwise the segment
// file's stem is tried against the well-known name table.
func segmentIDFor(idFlag, segPath string) (pup.SegmentID, error) {
	if idFlag != "" {
		if id, ok := pup.SegmentIDByName(idFlag); ok {
			return id, nil
		}
		n, err := strconv.ParseUint(idFlag, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("bad --id %q: %w", idFlag, err)
		}
		return pup.SegmentID(n), nil
	}
	stem := segmentFileStem(segPath)
	if id, ok := pup.SegmentIDByName(stem); ok {
		return id, nil
	}
	return 0, nil
}

// segmentFileStem strips the directory and any compression extension so
// "out/update_files.tar.zst" resolves like "update_files.tar".
func segmentFileStem(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if ext := compressionExt(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
