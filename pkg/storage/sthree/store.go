// Package sthree implements the storage.Store interface on AWS S3 and compatible object stores.
package sthree

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/stele/pkg/storage"
	"github.com/oneconcern/stele/pkg/storage/status"
	"go.uber.org/zap"
)

// PageSize is the maximum number of keys fetched by a single list request
const PageSize = 1000

// Option for the S3 store
type Option func(*s3FS)

// Bucket sets the bucket to operate on
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// Prefix roots all keys under some path in the bucket
func Prefix(prefix string) Option {
	return func(fs *s3FS) {
		fs.prefix = strings.Trim(prefix, "/")
	}
}

// AWSConfig sets the AWS session configuration
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Logger for the S3 store
func Logger(l *zap.Logger) Option {
	return func(fs *s3FS) {
		if l != nil {
			fs.l = l
		}
	}
}

// New S3 store
func New(option Option, options ...Option) (storage.Store, error) {
	fs := &s3FS{
		l: zap.NewNop(),
	}
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("s3 bucket is required")
	}

	if fs.awsConfig == nil {
		fs.awsConfig = aws.NewConfig()
	}
	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	return fs, nil
}

type s3FS struct {
	bucket    string
	prefix    string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
	l         *zap.Logger
}

func (s *s3FS) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *s3FS) relKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == 404 {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

// Put uploads an object.
//
// Exclusive puts check for the presence of the key first: S3 does not
// guarantee this is race-free.
func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) error {
	if exclusive {
		has, err := s.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.WrapMessage(key)
		}
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   rdr,
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	return filterErrNotExists(toSentinelErrors(err))
}

func (s *s3FS) listInput() *s3.ListObjectsInput {
	params := &s3.ListObjectsInput{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		params.Prefix = aws.String(s.prefix + "/")
	}
	return params
}

func (s *s3FS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	eachPage := func(page *s3.ListObjectsOutput, more bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key != "" {
				keys = append(keys, s.relKey(key))
			}
		}
		return true
	}

	err := s.s3.ListObjectsPagesWithContext(ctx, s.listInput(), eachPage)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return keys, nil
}

func (s *s3FS) KeysPrefix(ctx context.Context, token, prefix, delimiter string, count int) ([]string, string, error) {
	if count <= 0 || count > PageSize {
		count = PageSize
	}
	params := &s3.ListObjectsInput{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.fullKey(strings.TrimLeft(prefix, "/"))),
		MaxKeys: aws.Int64(int64(count)),
	}
	if s.prefix != "" && prefix == "" {
		params.Prefix = aws.String(s.prefix + "/")
	}
	if delimiter != "" {
		params.Delimiter = aws.String(delimiter)
	}
	if token != "" {
		params.Marker = aws.String(s.fullKey(token))
	}

	page, err := s.s3.ListObjectsWithContext(ctx, params)
	if err != nil {
		return nil, "", toSentinelErrors(err)
	}

	keys := make([]string, 0, len(page.Contents)+len(page.CommonPrefixes))
	for _, obj := range page.Contents {
		if key := aws.StringValue(obj.Key); key != "" {
			keys = append(keys, s.relKey(key))
		}
	}
	for _, cp := range page.CommonPrefixes {
		if key := aws.StringValue(cp.Prefix); key != "" {
			keys = append(keys, s.relKey(key))
		}
	}

	var next string
	if aws.BoolValue(page.IsTruncated) && len(keys) > 0 {
		next = aws.StringValue(page.NextMarker)
		if next == "" {
			next = s.fullKey(keys[len(keys)-1])
		}
		next = s.relKey(next)
	}
	s.l.Debug("s3 list", zap.String("prefix", prefix), zap.Int("keys", len(keys)), zap.Bool("truncated", next != ""))
	return keys, next, nil
}

func (s *s3FS) Clear(ctx context.Context) error {
	del := s3manager.NewBatchDeleteWithClient(s.s3)
	return toSentinelErrors(del.Delete(ctx, s3manager.NewDeleteListIterator(s.s3, s.listInput())))
}

func (s *s3FS) String() string {
	if s.prefix == "" {
		return "s3@" + s.bucket
	}
	return "s3@" + s.bucket + "/" + s.prefix
}
