package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-analyzer-client/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := newStore(fake, "exports-bucket", "/archive/", "")
	ctx := context.Background()

	key, size, err := store.Save(ctx, "session-1", "octo-cat-analysis.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)
	assert.True(t, strings.HasSuffix(key, "_octo-cat-analysis.pdf"), key)

	require.Len(t, fake.puts, 1)
	put := fake.puts[0]
	assert.Equal(t, "archive/"+key, aws.ToString(put.Key))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, put.ServerSideEncryption)
	assert.Equal(t, "attachment; filename=octo-cat-analysis.pdf", aws.ToString(put.ContentDisposition))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.True(t, errors.Is(err, object.ErrNotFound), "got %v", err)
}

func TestStoreUsesKMSKey(t *testing.T) {
	fake := newFakeS3()
	store := newStore(fake, "b", "", "alias/exports")

	_, _, err := store.Save(context.Background(), "s", "a.txt", "", strings.NewReader("x"))
	require.NoError(t, err)
	put := fake.puts[0]
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, put.ServerSideEncryption)
	assert.Equal(t, "alias/exports", aws.ToString(put.SSEKMSKeyId))
	assert.Equal(t, "application/octet-stream", aws.ToString(put.ContentType))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/report.pdf", want: "owner/report.pdf"},
		{name: "prefix slashes", prefix: "/root/", key: "/owner/report.pdf", want: "root/owner/report.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "owner/report.pdf", want: "root/sub/owner/report.pdf"},
		{name: "empty key", prefix: "root", key: "", want: "root"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(newFakeS3(), "b", tt.prefix, "")
			assert.Equal(t, tt.want, store.objectKey(tt.key))
		})
	}
}
