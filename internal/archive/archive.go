package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/multierr"
)

// Entry is one named blob inside an archive.
type Entry struct {
	Name string
	Data []byte
}

var ErrEntryTooLarge = errors.New("zip entry exceeds the size limit")

// Limits bound how far a zip may expand, per entry and over the whole archive.
type Limits struct {
	Entry int64
	Total int64
}

var DefaultLimits = Limits{
	Entry: 512 << 20,
	Total: 2 << 30,
}

// Budget tracks what is left of a Limits while reading one archive.
type Budget struct {
	limits Limits
	used   int64
}

func NewBudget(l Limits) *Budget {
	return &Budget{limits: l}
}

// Read decompresses f. It trusts neither the declared size nor the stream:
// reading stops one byte past the remaining allowance.
func (b *Budget) Read(f *zip.File) ([]byte, error) {
	max := b.limits.Entry
	if left := b.limits.Total - b.used; left < max {
		max = left
	}

	if f.UncompressedSize64 > uint64(max) {
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to open %s", f.Name), err)
	}

	data, err := io.ReadAll(io.LimitReader(rc, max+1))
	err = multierr.Append(err, rc.Close())
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to read %s", f.Name), err)
	}

	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: %s expands past %d bytes", ErrEntryTooLarge, f.Name, max)
	}

	b.used += int64(len(data))

	return data, nil
}

// Filter decides whether an entry's base name is wanted.
type Filter func(name string) bool

// IsPlatformMetadata reports paths written by archiving tools rather than users.
func IsPlatformMetadata(name string) bool {
	base := path.Base(name)

	return strings.HasPrefix(name, "__MACOSX/") ||
		strings.Contains(name, "/__MACOSX/") ||
		strings.HasPrefix(base, "._") ||
		base == ".DS_Store"
}

// Expand is ExpandLimit with DefaultLimits.
func Expand(data []byte, filter Filter) ([]Entry, error) {
	return ExpandLimit(data, filter, DefaultLimits)
}

// ExpandLimit reads every file entry of a zip, flattening directories to the
// base name. Directory entries, platform metadata and entries rejected by
// filter are skipped and do not count against limits.
func ExpandLimit(data []byte, filter Filter, limits Limits) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("invalid zip file"), err)
	}

	budget := NewBudget(limits)

	entries := []Entry{}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") || IsPlatformMetadata(name) {
			continue
		}

		base := path.Base(name)
		if filter != nil && !filter(base) {
			continue
		}

		b, err := budget.Read(f)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Name: base, Data: b})
	}

	return entries, nil
}

// Pack writes entries at the archive root in the given order. An empty list
// still yields a valid archive.
func Pack(entries []Entry) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	zw := zip.NewWriter(buf)

	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to create %s", e.Name), err)
		}

		if _, err := w.Write(e.Data); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to write %s", e.Name), err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UniqueNames disambiguates repeated names as "<stem> (2)<ext>", "<stem> (3)<ext>"
// and so on, keeping the first occurrence unchanged.
func UniqueNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, len(names))

	for i, name := range names {
		candidate := name
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		for n := 2; seen[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}

		seen[strings.ToLower(candidate)] = true
		out[i] = candidate
	}

	return out
}
