package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type stubS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	s.input = input
	data, _ := io.ReadAll(input.Body)
	s.body = data
	if s.err != nil {
		return nil, s.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestExportArchivePut(t *testing.T) {
	client := &stubS3{}
	archive, err := NewExportArchiveWithClient(client, "exports", "/series/")
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	key, err := archive.Put(context.Background(), "tx-1-power.pdf", "application/pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "series/tx-1-power.pdf" {
		t.Fatalf("unexpected key %s", key)
	}
	if aws.StringValue(client.input.Bucket) != "exports" || aws.StringValue(client.input.ContentType) != "application/pdf" {
		t.Fatalf("unexpected input: %+v", client.input)
	}
	if string(client.body) != "pdf" {
		t.Fatalf("unexpected body %q", client.body)
	}
}

func TestExportArchivePutError(t *testing.T) {
	client := &stubS3{err: errors.New("denied")}
	archive, err := NewExportArchiveWithClient(client, "exports", "")
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	if _, err := archive.Put(context.Background(), "a.xlsx", "application/octet-stream", nil); err == nil {
		t.Fatalf("expected error")
	}
}
