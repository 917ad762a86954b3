package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

// maxImageBytes batas ukuran gambar yang dibaca
const maxImageBytes = 20 << 20

// Store is a read-only view of one bucket on an S3-compatible object store.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// Options koneksi object store
type Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// New buat koneksi ke object store. Bucket tidak dibuat, hanya dibaca.
func New(ctx context.Context, opt Options) (*Store, error) {
	creds := credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, opt.SessionToken)
	if opt.AccessKey == "" {
		// fall back to AWS_* env vars, then the shared credentials file, then instance metadata
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	cli, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opt.UseSSL,
		Region: opt.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opt.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opt.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", opt.Bucket)
	}

	return &Store{client: cli, bucketName: opt.Bucket, region: opt.Region}, nil
}

// List returns the keys directly under prefix. Only one listing pass is made.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucketName, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Fetch reads the whole object. Any failure is reported as ErrSourceNotFound.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, sourceErr(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces NoSuchKey before reading
	if _, err := obj.Stat(); err != nil {
		return nil, sourceErr(key, err)
	}

	data, err := io.ReadAll(io.LimitReader(obj, maxImageBytes+1))
	if err != nil {
		return nil, sourceErr(key, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: %s: object larger than %d bytes", domain.ErrSourceNotFound, key, maxImageBytes)
	}
	return data, nil
}

// Check is used by the health endpoint.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func sourceErr(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, key)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrSourceNotFound, key, err)
}
