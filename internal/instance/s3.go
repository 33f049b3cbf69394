package instance

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/service/s3"
)

type S3 interface {
	DownloadFile(ctx context.Context, bucket, key string) ([]byte, error)
	UploadFile(ctx context.Context, opts *S3UploadOptions) error
	ListBuckets(ctx context.Context) ([]*s3.Bucket, error)
}

type S3UploadOptions struct {
	Bucket       string
	Key          string
	Body         io.Reader
	ContentType  string
	CacheControl string
	ACL          string
}
