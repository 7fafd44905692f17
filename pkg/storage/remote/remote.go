// Package remote resolves a storage location into a store.
//
// Supported locations are:
//   - s3://bucket[/prefix]
//   - file:///some/path, or a plain local path
package remote

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/stele/pkg/storage"
	"github.com/oneconcern/stele/pkg/storage/localfs"
	"github.com/oneconcern/stele/pkg/storage/sthree"
	"github.com/oneconcern/stele/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type settings struct {
	l         *zap.Logger
	awsConfig *aws.Config
}

// Option for remote stores
type Option func(*settings)

// Logger for the store
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

// AWSConfig for s3 locations
func AWSConfig(cfg *aws.Config) Option {
	return func(s *settings) {
		s.awsConfig = cfg
	}
}

// Open a store at some location. The returned store is instrumented.
func Open(location string, opts ...Option) (storage.Store, error) {
	s := &settings{l: zap.NewNop()}
	for _, apply := range opts {
		apply(s)
	}

	if location == "" {
		return nil, status.ErrUnsupportedURL.WrapMessage("empty storage location")
	}

	var (
		store storage.Store
		err   error
	)
	scheme, rest := splitScheme(location)
	switch scheme {
	case "s3":
		bucket, prefix := splitBucket(rest)
		store, err = sthree.New(sthree.Bucket(bucket), sthree.Prefix(prefix), sthree.AWSConfig(s.awsConfig), sthree.Logger(s.l))
	case "file", "":
		store, err = openLocal(rest)
	default:
		return nil, status.ErrUnsupportedURL.WrapMessage(location)
	}
	if err != nil {
		return nil, err
	}
	s.l.Debug("opened store", zap.String("location", location), zap.String("store", store.String()))
	return storage.Instrument(s.l, store), nil
}

func openLocal(pth string) (storage.Store, error) {
	abs, err := filepath.Abs(pth)
	if err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	if err = os.MkdirAll(abs, 0700); err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	return localfs.NewAtomic(afero.NewBasePathFs(afero.NewOsFs(), abs))
}

func splitScheme(location string) (string, string) {
	if !strings.Contains(location, "://") {
		return "", location
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", location
	}
	switch u.Scheme {
	case "file":
		return u.Scheme, u.Path
	default:
		return u.Scheme, u.Host + u.Path
	}
}

func splitBucket(rest string) (string, string) {
	parts := strings.SplitN(strings.TrimLeft(rest, "/"), "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
