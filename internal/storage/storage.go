package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seventv/slide-inverter/internal/instance"
	"go.uber.org/multierr"
)

const s3Scheme = "s3://"

var ErrNoS3 = errors.New("s3 is not configured")

// Location is either a local path or an object in a bucket.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

func (l Location) IsS3() bool {
	return l.Bucket != ""
}

// Name is the base file name of the location.
func (l Location) Name() string {
	if l.IsS3() {
		return filepath.Base(l.Key)
	}

	return filepath.Base(l.Path)
}

func (l Location) String() string {
	if l.IsS3() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}

	return l.Path
}

// Parse accepts "s3://bucket/key" or a filesystem path.
func Parse(raw string) (Location, error) {
	if !strings.HasPrefix(raw, s3Scheme) {
		if raw == "" {
			return Location{}, errors.New("empty path")
		}

		return Location{Path: raw}, nil
	}

	rest := strings.TrimPrefix(raw, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid s3 location %q, expected s3://bucket/key", raw)
	}

	return Location{Bucket: bucket, Key: key}, nil
}

// Storage reads and writes locations. S3 may be nil when only local paths are used.
type Storage struct {
	S3 instance.S3
}

func New(s3 instance.S3) *Storage {
	return &Storage{S3: s3}
}

func (s *Storage) Read(ctx context.Context, loc Location) ([]byte, error) {
	if !loc.IsS3() {
		return os.ReadFile(loc.Path)
	}

	if s.S3 == nil {
		return nil, ErrNoS3
	}

	data, err := s.S3.DownloadFile(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to download %s", loc), err)
	}

	return data, nil
}

func (s *Storage) Write(ctx context.Context, loc Location, data []byte, contentType string) error {
	if !loc.IsS3() {
		if dir := filepath.Dir(loc.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}

		return os.WriteFile(loc.Path, data, 0644)
	}

	if s.S3 == nil {
		return ErrNoS3
	}

	if err := s.S3.UploadFile(ctx, &instance.S3UploadOptions{
		Bucket:      loc.Bucket,
		Key:         loc.Key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
	}); err != nil {
		return multierr.Append(fmt.Errorf("failed to upload %s", loc), err)
	}

	return nil
}

// ReadAll reads every location, collecting failures rather than stopping at the
// first. Each failure is prefixed with its location.
func (s *Storage) ReadAll(ctx context.Context, locs []Location) (map[Location][]byte, error) {
	out := map[Location][]byte{}

	var err error
	for _, loc := range locs {
		data, e := s.Read(ctx, loc)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", loc, e))
			continue
		}
		out[loc] = data
	}

	return out, err
}
