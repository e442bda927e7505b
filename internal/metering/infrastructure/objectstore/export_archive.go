package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ExportArchive stores rendered series exports in an S3 bucket.
type ExportArchive struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewExportArchive constructs an archive backed by a new AWS session in region.
func NewExportArchive(region, bucket, prefix string) (*ExportArchive, error) {
	if bucket == "" {
		return nil, errors.New("export archive: bucket required")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("export archive: aws session: %w", err)
	}
	return NewExportArchiveWithClient(s3.New(sess), bucket, prefix)
}

// NewExportArchiveWithClient constructs an archive around an existing S3 client.
func NewExportArchiveWithClient(client s3iface.S3API, bucket, prefix string) (*ExportArchive, error) {
	if client == nil {
		return nil, errors.New("export archive: nil s3 client")
	}
	if bucket == "" {
		return nil, errors.New("export archive: bucket required")
	}
	return &ExportArchive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Put uploads an export and returns its object key.
func (a *ExportArchive) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if a == nil || a.client == nil {
		return "", errors.New("export archive: not configured")
	}
	if name == "" {
		return "", errors.New("export archive: empty name")
	}
	key := name
	if a.prefix != "" {
		key = path.Join(a.prefix, name)
	}
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("export archive: put %s: %w", key, err)
	}
	return key, nil
}
