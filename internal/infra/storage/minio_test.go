package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

const testBucket = "traffic-sign-project-bucket"

// fakeS3 answers the handful of S3 calls the store makes: HEAD bucket,
// ListObjectsV2, HEAD object (Stat) and GET object.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/")
		bucket, key, _ := strings.Cut(p, "/")
		if bucket != testBucket {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>no bucket</Message></Error>`)
			return
		}

		switch {
		case r.Method == http.MethodHead && key == "":
			w.WriteHeader(http.StatusOK)

		case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
			prefix := r.URL.Query().Get("prefix")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
			fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><MaxKeys>1000</MaxKeys><Delimiter>/</Delimiter><IsTruncated>false</IsTruncated>", testBucket, prefix)
			n := 0
			for k, v := range objects {
				if !strings.HasPrefix(k, prefix) {
					continue
				}
				n++
				fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag><Size>%d</Size><StorageClass>STANDARD</StorageClass></Contents>`, k, len(v))
			}
			fmt.Fprintf(&b, "<KeyCount>%d</KeyCount></ListBucketResult>", n)
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, b.String())

		case (r.Method == http.MethodHead || r.Method == http.MethodGet) && key != "":
			k, _ := url.PathUnescape(key)
			v, ok := objects[k]
			if !ok {
				// HEAD has no body; the client derives NoSuchKey from the 404
				if r.Method == http.MethodHead {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key></Error>`, k)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Content-Length", fmt.Sprint(len(v)))
			w.Header().Set("ETag", `"etag"`)
			w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				fmt.Fprint(w, v)
			}

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func newTestStore(t *testing.T, srv *httptest.Server) *Store {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	s, err := New(context.Background(), Options{
		Endpoint:  u.Host,
		Region:    "us-east-1",
		Bucket:    testBucket,
		AccessKey: "test",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)
	return s
}

func TestStore_List(t *testing.T) {
	srv := fakeS3(t, map[string]string{
		"inputs/image-1.jpg": "a",
		"inputs/image-2.png": "b",
		"other/image-9.jpg":  "c",
	})
	defer srv.Close()

	keys, err := newTestStore(t, srv).List(context.Background(), domain.InputPrefix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"inputs/image-1.jpg", "inputs/image-2.png"}, keys)
}

func TestStore_Fetch(t *testing.T) {
	srv := fakeS3(t, map[string]string{"inputs/image-1.jpg": "jpeg-bytes"})
	defer srv.Close()

	data, err := newTestStore(t, srv).Fetch(context.Background(), "inputs/image-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestStore_FetchMissing(t *testing.T) {
	srv := fakeS3(t, map[string]string{})
	defer srv.Close()

	_, err := newTestStore(t, srv).Fetch(context.Background(), "inputs/missing.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceNotFound))
	// NoSuchKey is reported without the raw S3 cause
	assert.Equal(t, "image source not found: inputs/missing.jpg", err.Error())
}

func TestSourceErr(t *testing.T) {
	noKey := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	assert.Equal(t, "image source not found: inputs/a.jpg", sourceErr("inputs/a.jpg", noKey).Error())

	other := sourceErr("inputs/a.jpg", errors.New("connection reset"))
	assert.True(t, errors.Is(other, domain.ErrSourceNotFound))
	assert.Contains(t, other.Error(), "connection reset")
}

func TestNew_MissingBucket(t *testing.T) {
	srv := fakeS3(t, nil)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	_, err := New(context.Background(), Options{
		Endpoint: u.Host, Region: "us-east-1", Bucket: "nope", AccessKey: "k", SecretKey: "s",
	})
	assert.Error(t, err)
}
