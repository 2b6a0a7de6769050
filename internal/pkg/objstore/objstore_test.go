package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	now := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	key, err := NewKey("/portfolio/", "image/jpeg", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^portfolio/2024/07/[0-9a-z]{21}\.jpg$`), key)

	key, err = NewKey("portfolio", "application/x-unknown", now)
	require.NoError(t, err)
	assert.Regexp(t, `\.bin$`, key)
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/a/b.png", "a/b.png", false},
		{`a\b.png`, "a/b.png", false},
		{"../etc/passwd", "", true},
		{"a//b", "", true},
		{"  ", "", true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "portfolio/2024/01/x.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/objects/portfolio/2024/01/x.png", url)

	data, err := os.ReadFile(filepath.Join(root, "portfolio", "2024", "01", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	key, ok := KeyFromURL(store, url)
	require.True(t, ok)
	assert.Equal(t, "portfolio/2024/01/x.png", key)
	_, ok = KeyFromURL(store, "https://elsewhere.dev/x.png")
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "portfolio", "2024", "01", "x.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = store.Put(ctx, "../escape.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.NoError(t, store.Check(ctx))
}

type fakeS3 struct {
	put    *s3.PutObjectInput
	body   []byte
	delKey string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delKey = *in.Key
	return &s3.DeleteObjectOutput{}, f.err
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestS3StorePut(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, opts: S3Options{Bucket: "media", Region: "us-east-1"}}

	url, err := store.Put(context.Background(), "portfolio/a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/portfolio/a.jpg", url)
	assert.Equal(t, "media", *fake.put.Bucket)
	assert.Equal(t, "image/jpeg", *fake.put.ContentType)
	assert.Equal(t, "jpeg", string(fake.body))

	require.NoError(t, store.Delete(context.Background(), "portfolio/a.jpg"))
	assert.Equal(t, "portfolio/a.jpg", fake.delKey)
}

func TestS3StorePutError(t *testing.T) {
	store := &S3Store{client: &fakeS3{err: errors.New("denied")}, opts: S3Options{Bucket: "media"}}
	_, err := store.Put(context.Background(), "a.jpg", nil, "image/jpeg")
	assert.ErrorContains(t, err, "s3 put object")
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{"custom domain", S3Options{Bucket: "b", CustomDomain: "cdn.site.dev"}, "https://cdn.site.dev/k.png"},
		{"path style", S3Options{Bucket: "b", Endpoint: "http://minio:9000", PathStyle: true}, "http://minio:9000/b/k.png"},
		{"virtual host endpoint", S3Options{Bucket: "b", Endpoint: "https://r2.example.com"}, "https://b.r2.example.com/k.png"},
		{"aws", S3Options{Bucket: "b", Region: "sa-east-1"}, "https://b.s3.sa-east-1.amazonaws.com/k.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &S3Store{opts: tt.opts}
			assert.Equal(t, tt.want, store.PublicURL("k.png"))
		})
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(S3Options{})
	assert.Error(t, err)

	store, err := NewS3Store(S3Options{Bucket: "b", Endpoint: "http://minio:9000", AccessKeyID: "k", SecretAccessKey: "s", PathStyle: true})
	require.NoError(t, err)
	assert.Equal(t, "s3", store.Name())
}
