package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// defaultS3Region is used for custom endpoints that ignore the region.
const defaultS3Region = "us-east-1"

type S3Adapter struct {
	client *s3.Client
}

type S3Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	// UsePathStyle is required by most S3 compatibles.
	UsePathStyle bool
}

func (o S3Options) loadOptions() []func(*config.LoadOptions) error {
	var out []func(*config.LoadOptions) error

	switch {
	case o.Region != "":
		out = append(out, config.WithRegion(o.Region))
	case o.Endpoint != "":
		out = append(out, config.WithRegion(defaultS3Region))
	}

	if o.AccessKey != "" || o.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, o.SessionToken)
		out = append(out, config.WithCredentialsProvider(static))
	}

	return out
}

// NewS3 resolves credentials through the default AWS chain unless static keys are set.
func NewS3(ctx context.Context, opts S3Options) (*S3Adapter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, opts.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Adapter{client: client}, nil
}

func (s *S3Adapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	in := &s3.PutObjectInput{
		Bucket:   &bucket,
		Key:      &key,
		Body:     r,
		Metadata: opts.Metadata,
	}
	if opts.ContentType != "" {
		in.ContentType = &opts.ContentType
	}
	if opts.Size >= 0 {
		in.ContentLength = &opts.Size
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: s3 put %s/%s: %w", bucket, key, err)
	}

	info := opts.info(bucket, key)
	info.ETag = aws.ToString(out.ETag)

	return info, nil
}

func (s *S3Adapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if isS3NotFound(err) {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("storage: s3 get %s/%s: %w", bucket, key, err)
	}

	return out.Body, ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
		UpdatedAt:   aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Adapter) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("storage: s3 delete %s/%s: %w", bucket, key, err)
	}

	return nil
}

func (*S3Adapter) Close() error { return nil }

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}
