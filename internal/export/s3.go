package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Destination archives JSONL exports to an S3-compatible bucket. Each
// export is stored under its own timestamped key, so earlier archives are
// never overwritten.
type S3Destination struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	now       func() time.Time
}

// NewS3Destination creates an S3 destination writing under keyPrefix. If
// endpoint is non-empty, path-style addressing is enabled (for MinIO and
// similar).
func NewS3Destination(ctx context.Context, bucket, keyPrefix, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client:    s3.NewFromConfig(cfg, s3opts...),
		bucket:    bucket,
		keyPrefix: strings.TrimSuffix(keyPrefix, "/"),
		now:       time.Now,
	}, nil
}

// objectKey names one archive: <prefix>/reviews-20060102T150405Z.jsonl.
func (d *S3Destination) objectKey() string {
	name := "reviews-" + d.now().UTC().Format("20060102T150405Z") + ".jsonl"
	if d.keyPrefix == "" {
		return name
	}
	return d.keyPrefix + "/" + name
}

// Write uploads one export as a new object.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	key := d.objectKey()
	contentType := "application/x-ndjson"
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s: %w", key, err)
	}
	return nil
}
