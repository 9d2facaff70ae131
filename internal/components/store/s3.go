package store

import (
	"bytes"
	"context"
	"cqscraper/internal/components/telemetry"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	report_s3_list = "s3.list"
	report_s3_get  = "s3.get"
	report_s3_put  = "s3.put"
)

type S3Options struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

// S3 stores records in a bucket of any S3 compatible service.
type S3 struct {
	client *miniogo.Client
	bucket string
	tel    telemetry.API
}

func NewS3(opts S3Options, tel telemetry.API) (S3, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return S3{}, fmt.Errorf("s3 store: endpoint and bucket are required")
	}
	client, err := miniogo.New(opts.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return S3{}, fmt.Errorf("s3 store: create client: %w", err)
	}
	return S3{
		client: client,
		bucket: opts.Bucket,
		tel:    telemetry.NewScopedAPI("store", tel),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("s3 store: bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("s3 store: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	objects := s.client.ListObjects(ctx, s.bucket, miniogo.ListObjectsOptions{
		Prefix:    listPrefix(prefix),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			s.tel.ReportBroken(report_s3_list, obj.Err, prefix)
			return nil, obj.Err
		}
		if isMarker(prefix, obj.Key) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	s.tel.ReportDebug(report_s3_list, prefix, len(keys))
	return keys, nil
}

func (s S3) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		s.tel.ReportBroken(report_s3_get, err, key)
		return nil, err
	}
	defer obj.Close()

	doc, err := io.ReadAll(obj)
	if miniogo.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil, ErrNotFound
	}
	if err != nil {
		s.tel.ReportBroken(report_s3_get, err, key)
		return nil, err
	}
	return doc, nil
}

func (s S3) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(doc),
		int64(len(doc)),
		miniogo.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		s.tel.ReportBroken(report_s3_put, err, key)
		return err
	}
	return nil
}
