package s3

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/seventv/slide-inverter/internal/instance"
)

// Mock keeps objects in memory, keyed by bucket then key.
type Mock struct {
	mtx   sync.Mutex
	files map[string]map[string][]byte
}

func NewMock(files map[string]map[string][]byte) *Mock {
	if files == nil {
		files = map[string]map[string][]byte{}
	}

	return &Mock{files: files}
}

var _ instance.S3 = (*Mock)(nil)

func (m *Mock) DownloadFile(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	b, ok := m.files[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket not found: %s", bucket)
	}

	data, ok := b[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}

	return data, nil
}

func (m *Mock) UploadFile(ctx context.Context, opts *instance.S3UploadOptions) error {
	data, err := io.ReadAll(opts.Body)
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	b, ok := m.files[opts.Bucket]
	if !ok {
		return fmt.Errorf("bucket not found: %s", opts.Bucket)
	}
	b[opts.Key] = data

	return nil
}

func (m *Mock) ListBuckets(ctx context.Context) ([]*s3.Bucket, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	out := []*s3.Bucket{}
	for name := range m.files {
		out = append(out, &s3.Bucket{Name: aws.String(name)})
	}

	return out, nil
}

// Object returns a stored object for assertions.
func (m *Mock) Object(bucket, key string) ([]byte, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	data, ok := m.files[bucket][key]

	return data, ok
}
