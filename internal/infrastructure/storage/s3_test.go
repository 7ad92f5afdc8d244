package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubehub/user-service/internal/core/domain"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &manager.UploadOutput{}, f.err
}

type fakeDeleter struct {
	keys []string
	err  error
}

func (f *fakeDeleter) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.err
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		folder, name, prefix, suffix string
	}{
		{"avatars", "me.PNG", "avatars/", ".png"},
		{"/coverImages/", "C:\\Users\\me\\cover.jpg", "coverImages/", ".jpg"},
		{"avatars", "noext", "avatars/", ""},
		{"avatars", "x.averyveryLongExtension", "avatars/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey(tt.folder, tt.name)
			assert.True(t, strings.HasPrefix(key, tt.prefix), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.Len(t, key, len(tt.prefix)+36+len(tt.suffix))
		})
	}
}

func TestObjectKeyIsUnique(t *testing.T) {
	assert.NotEqual(t, objectKey("avatars", "a.png"), objectKey("avatars", "a.png"))
}

func TestS3Store_Upload(t *testing.T) {
	up := &fakeUploader{}
	store := newS3Store(up, &fakeDeleter{}, "media", "https://cdn.example.com/")
	store.newKey = func(folder, _ string) string { return folder + "/fixed.png" }

	media, err := store.Upload(context.Background(), domain.MediaFile{
		Name: "me.png",
		Size: 5,
		Body: strings.NewReader("image"),
	}, domain.FolderAvatars)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/fixed.png", media.URL)
	assert.Equal(t, "avatars/fixed.png", media.PublicID)
	assert.Equal(t, "media", aws.ToString(up.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(up.input.ContentType))
	assert.Equal(t, int64(5), aws.ToInt64(up.input.ContentLength))
	assert.Equal(t, "image", up.body)
}

func TestS3Store_UploadFailure(t *testing.T) {
	store := newS3Store(&fakeUploader{err: errors.New("boom")}, &fakeDeleter{}, "media", "https://cdn")

	_, err := store.Upload(context.Background(), domain.MediaFile{Name: "a.png", Body: strings.NewReader("x")}, domain.FolderAvatars)
	assert.ErrorContains(t, err, "boom")

	_, err = store.Upload(context.Background(), domain.MediaFile{Name: "a.png"}, domain.FolderAvatars)
	assert.Error(t, err)
}

func TestS3Store_Delete(t *testing.T) {
	del := &fakeDeleter{}
	store := newS3Store(&fakeUploader{}, del, "media", "https://cdn")

	require.NoError(t, store.Delete(context.Background(), "/avatars/a.png"))
	require.NoError(t, store.Delete(context.Background(), ""))
	assert.Equal(t, []string{"avatars/a.png"}, del.keys)

	del.err = errors.New("denied")
	assert.ErrorContains(t, store.Delete(context.Background(), "avatars/b.png"), "denied")
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn", publicBaseURL(Config{PublicBaseURL: "https://cdn", Bucket: "b"}, "http://minio:9000"))
	assert.Equal(t, "http://minio:9000/b", publicBaseURL(Config{Bucket: "b"}, "http://minio:9000"))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBaseURL(Config{Bucket: "b", Region: "eu-west-1"}, ""))
}
