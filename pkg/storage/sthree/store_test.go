package sthree

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/oneconcern/stele/internal/rand"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/storage"
	"github.com/oneconcern/stele/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpointEnv points to a minio server, e.g. http://127.0.0.1:9000
const endpointEnv = "STELE_TEST_S3_ENDPOINT"

func TestToSentinelErrors(t *testing.T) {
	for _, toPin := range []struct {
		code     string
		status   int
		expected error
	}{
		{code: "InvalidBucketName", status: 400, expected: status.ErrInvalidResource},
		{code: "BadDigest", status: 400, expected: status.ErrStorageAPI},
		{code: "Unauthorized", status: 401, expected: status.ErrUnauthorized},
		{code: "AccessDenied", status: 403, expected: status.ErrForbidden},
		{code: "NoSuchKey", status: 404, expected: status.ErrNotExists},
		{code: "NotFound", status: 404, expected: status.ErrNotExists},
		{code: "NoSuchUpload", status: 404, expected: status.ErrNotFound},
		{code: "PreconditionFailed", status: 412, expected: status.ErrExists},
		{code: "InternalError", status: 500, expected: status.ErrStorageAPI},
	} {
		fixture := toPin
		t.Run(fixture.code, func(t *testing.T) {
			err := toSentinelErrors(awserr.NewRequestFailure(awserr.New(fixture.code, "test", nil), fixture.status, "req"))
			require.Error(t, err)
			assert.Truef(t, errors.Is(err, fixture.expected), "expected %v, got %v", fixture.expected, err)
		})
	}

	assert.NoError(t, toSentinelErrors(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, toSentinelErrors(plain))
	assert.NoError(t, filterErrNotExists(status.ErrNotExists.WrapMessage("x")))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Bucket(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidResource))
}

func TestKeyMapping(t *testing.T) {
	s := &s3FS{bucket: "b", prefix: "snapshots"}
	assert.Equal(t, "snapshots/abc/manifest.json", s.fullKey("abc/manifest.json"))
	assert.Equal(t, "abc/manifest.json", s.relKey("snapshots/abc/manifest.json"))
	assert.Equal(t, "s3@b/snapshots", s.String())

	s = &s3FS{bucket: "b"}
	assert.Equal(t, "abc", s.fullKey("abc"))
	assert.Equal(t, "s3@b", s.String())
}

func TestStore(t *testing.T) {
	bs, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	has, err := bs.Has(ctx, "sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(ctx, "fifteentons")
	require.NoError(t, err)
	require.False(t, has)

	rdr, err := bs.Get(ctx, "sixteentons")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	_, err = bs.Get(ctx, "fifteentons")
	assert.True(t, errors.Is(err, status.ErrNotExists))

	err = bs.Put(ctx, "sixteentons", bytes.NewBufferString("again"), storage.NoOverWrite)
	assert.True(t, errors.Is(err, status.ErrExists))

	require.NoError(t, bs.Put(ctx, "eighteentons", bytes.NewBufferString("here we go once again"), storage.NoOverWrite))

	keys, err := bs.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	keys, next, err := bs.KeysPrefix(ctx, "", "s", "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"seventeentons"}, keys)
	assert.Equal(t, "seventeentons", next)

	require.NoError(t, bs.Delete(ctx, "seventeentons"))
	keys, _ = bs.Keys(ctx)
	assert.Len(t, keys, 2)

	require.NoError(t, bs.Clear(ctx))
	keys, _ = bs.Keys(ctx)
	assert.Empty(t, keys)
}

func setupStore(t testing.TB) (storage.Store, func()) {
	t.Helper()

	endpoint := os.Getenv(endpointEnv)
	if endpoint == "" {
		t.Skipf("%s is not set: skipping s3 integration test", endpointEnv)
	}

	bucket := aws.String("stele-test-" + rand.LetterString(15))
	minioConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials("access-key", "secret-key-thing", ""),
		Region:           aws.String("us-west-2"),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess, err := session.NewSession(minioConfig)
	require.NoError(t, err)

	cl := s3.New(sess)
	_, err = cl.CreateBucket(&s3.CreateBucketInput{
		Bucket: bucket,
		CreateBucketConfiguration: &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String("us-west-2"),
		},
	})
	require.NoError(t, err)

	bs, err := New(Bucket(*bucket), Prefix("test"), AWSConfig(minioConfig))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bs.Put(ctx, "sixteentons", bytes.NewBufferString("this is the text"), storage.OverWrite))
	require.NoError(t, bs.Put(ctx, "seventeentons", bytes.NewBufferString("this is the text for another thing"), storage.OverWrite))

	return bs, func() {
		_ = bs.Clear(ctx)
		_, _ = cl.DeleteBucket(&s3.DeleteBucketInput{Bucket: bucket})
	}
}
