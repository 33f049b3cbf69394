package s3

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/slide-inverter/internal/instance"
)

type Options struct {
	Region      string
	Endpoint    string
	AccessToken string
	SecretKey   string
}

type s3Inst struct {
	session *session.Session
	client  *s3.S3
}

func New(ctx context.Context, o Options) (instance.S3, error) {
	cfg := aws.NewConfig().
		WithRegion(o.Region).
		WithS3ForcePathStyle(o.Endpoint != "")

	if o.Endpoint != "" {
		cfg = cfg.WithEndpoint(o.Endpoint)
	}
	if o.AccessToken != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(o.AccessToken, o.SecretKey, ""))
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return &s3Inst{
		session: sess,
		client:  s3.New(sess),
	}, nil
}

func (a *s3Inst) DownloadFile(ctx context.Context, bucket, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)

	_, err := s3manager.NewDownloader(a.session).DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (a *s3Inst) UploadFile(ctx context.Context, opts *instance.S3UploadOptions) error {
	input := &s3manager.UploadInput{
		Bucket:      aws.String(opts.Bucket),
		Key:         aws.String(opts.Key),
		Body:        opts.Body,
		ContentType: aws.String(opts.ContentType),
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.ACL != "" {
		input.ACL = aws.String(opts.ACL)
	}

	_, err := s3manager.NewUploader(a.session).UploadWithContext(ctx, input)

	return err
}

func (a *s3Inst) ListBuckets(ctx context.Context) ([]*s3.Bucket, error) {
	resp, err := a.client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	return resp.Buckets, nil
}
