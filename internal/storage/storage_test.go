package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-shop/storefront-service/internal/config"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewLocalStore(dir, "uploads/")
	ctx := context.Background()

	url, err := store.Save(ctx, "rose.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/rose.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "rose.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Save(ctx, "rose.png", strings.NewReader("again"), 5, "image/png")
	assert.Error(t, err, "existing files are never overwritten")

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "rose.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, url), "deleting twice is fine")
	assert.NoError(t, store.Delete(ctx, "https://elsewhere/x.png"))
}

func TestLocalStoreStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads")

	url, err := store.Save(context.Background(), "../../etc/evil.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/evil.png", url)
	_, err = os.Stat(filepath.Join(dir, "evil.png"))
	assert.NoError(t, err)
}

type fakeS3 struct {
	puts    map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{puts: map[string]string{}}
	store := NewS3StoreWithClient(client, config.S3Config{Bucket: "shop", Endpoint: "http://minio:9000/"})
	ctx := context.Background()

	url, err := store.Save(ctx, "tulip.jpg", strings.NewReader("jpg"), 3, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/shop/products/tulip.jpg", url)
	assert.Equal(t, "jpg", client.puts["shop/products/tulip.jpg"])

	require.NoError(t, store.Delete(ctx, url))
	require.NoError(t, store.Delete(ctx, "/uploads/legacy.png"))
	assert.Equal(t, []string{"shop/products/tulip.jpg"}, client.deleted)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(config.S3Config{PublicBaseURL: "https://cdn.example.com/"}))
	assert.Equal(t, "https://shop.s3.sa-east-1.amazonaws.com", publicBaseURL(config.S3Config{Bucket: "shop", Region: "sa-east-1"}))
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: "local", UploadsDir: t.TempDir(), PublicPath: "/uploads"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
