package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/harudiet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
	err     error
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(params.Body)
	m.puts = append(m.puts, params)
	m.bodies = append(m.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.deletes = append(m.deletes, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	mock := &mockS3{}
	store := newS3PhotoStore(mock, "food-images", "https://cdn.example.com/food-images/")
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := store.Upload(context.Background(), "Lunch.JPG", "image/jpeg", []byte("jpeg-bytes"))

	require.NoError(t, err)
	require.Len(t, mock.puts, 1)
	put := mock.puts[0]
	assert.Equal(t, "food-images", aws.ToString(put.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(put.ContentType))
	assert.Equal(t, "jpeg-bytes", string(mock.bodies[0]))

	key := aws.ToString(put.Key)
	assert.Regexp(t, regexp.MustCompile(`^1700000000000-[0-9a-f-]{36}\.jpg$`), key)
	assert.Equal(t, "https://cdn.example.com/food-images/"+key, url)
}

func TestUpload_UniqueKeys(t *testing.T) {
	mock := &mockS3{}
	store := newS3PhotoStore(mock, "food-images", "https://cdn.example.com")

	_, err := store.Upload(context.Background(), "a.png", "", []byte("1"))
	require.NoError(t, err)
	_, err = store.Upload(context.Background(), "a.png", "", []byte("2"))
	require.NoError(t, err)

	require.Len(t, mock.puts, 2)
	assert.NotEqual(t, aws.ToString(mock.puts[0].Key), aws.ToString(mock.puts[1].Key))
	assert.Equal(t, "application/octet-stream", aws.ToString(mock.puts[0].ContentType))
}

func TestUpload_Errors(t *testing.T) {
	store := newS3PhotoStore(&mockS3{}, "food-images", "https://cdn.example.com")
	_, err := store.Upload(context.Background(), "a.jpg", "image/jpeg", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	failing := newS3PhotoStore(&mockS3{err: errors.New("connection refused")}, "food-images", "https://cdn.example.com")
	_, err = failing.Upload(context.Background(), "a.jpg", "image/jpeg", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestDelete(t *testing.T) {
	mock := &mockS3{}
	store := newS3PhotoStore(mock, "food-images", "https://cdn.example.com/food-images")

	require.NoError(t, store.Delete(context.Background(), "123-abc.jpg"))
	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/food-images/456-def.png"))

	assert.Equal(t, []string{"123-abc.jpg", "456-def.png"}, mock.deletes)
	assert.ErrorIs(t, store.Delete(context.Background(), ""), domain.ErrInvalidRequest)
}

func TestDelete_ForeignURL(t *testing.T) {
	mock := &mockS3{}
	store := newS3PhotoStore(mock, "food-images", "https://cdn.example.com/food-images")

	err := store.Delete(context.Background(), "https://elsewhere.example.com/photo.jpg")

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, mock.deletes)
}

func TestNewS3PhotoStore_IncompleteConfig(t *testing.T) {
	_, err := NewS3PhotoStore(context.Background(), Options{Endpoint: "http://localhost:9000"})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
