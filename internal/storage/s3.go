package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string // e.g. a MinIO URL; empty means AWS
	AccessKey    string
	SecretKey    string
	URLTTL       time.Duration
}

// S3 keeps images in a bucket and hands out presigned GET links.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

func NewS3(ctx context.Context, c S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	ttl := c.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  c.Bucket,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (s *S3) Save(ctx context.Context, original string, r io.Reader) (string, error) {
	key, err := UniqueName(original, s.now())
	if err != nil {
		return "", err
	}
	// the SDK needs a seekable body to sign the payload
	body, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(r)
		if err != nil {
			return "", errors.Wrap(err, "read image")
		}
		body = bytes.NewReader(buf)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return key, nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return errors.Errorf("invalid image reference %q", ref)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	return errors.Wrapf(err, "delete object %s", ref)
}

func (s *S3) URL(ctx context.Context, ref string) (string, error) {
	if !validRef(ref) {
		return "", errors.Errorf("invalid image reference %q", ref)
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", ref)
	}
	return req.URL, nil
}
