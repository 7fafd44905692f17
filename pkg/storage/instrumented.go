// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oneconcern/stele/pkg/metrics"
	"go.uber.org/zap"
)

var (
	storageMetrics     *metrics.IOMetrics
	storageMetricsOnce sync.Once
)

func ioMetrics() *metrics.IOMetrics {
	storageMetricsOnce.Do(func() {
		storageMetrics = metrics.NewIOMetrics("storage")
	})
	return storageMetrics
}

// Instrument decorates a store with debug logs and IO metrics
func Instrument(l *zap.Logger, store Store) Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &instrumentedStore{
		store:   store,
		logs:    l.With(zap.String("store", store.String())),
		metrics: ioMetrics(),
	}
}

type instrumentedStore struct {
	store   Store
	logs    *zap.Logger
	metrics *metrics.IOMetrics
}

// kind strips the location from the store description
func (i *instrumentedStore) kind() string {
	return strings.SplitN(i.store.String(), "@", 2)[0]
}

func (i *instrumentedStore) KeysPrefix(ctx context.Context, token, prefix, delimiter string, count int) (keys []string, next string, err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "keysprefix")(0, err) }(time.Now())
	i.logs.Debug("storage keys with prefix", zap.String("prefix", prefix), zap.String("token", token))

	return i.store.KeysPrefix(ctx, token, prefix, delimiter, count)
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "has")(0, err) }(time.Now())
	i.logs.Debug("storage has", zap.String("key", key))

	return i.store.Has(ctx, key)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (rdr io.ReadCloser, err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "get")(0, err) }(time.Now())
	i.logs.Debug("storage get", zap.String("key", key))

	return i.store.Get(ctx, key)
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader, exclusive bool) (err error) {
	cr := &countingReader{Reader: rdr}
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "put")(cr.n, err) }(time.Now())
	i.logs.Debug("storage put", zap.String("key", key), zap.Bool("exclusive", exclusive))

	return i.store.Put(ctx, key, cr, exclusive)
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) (err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "delete")(0, err) }(time.Now())
	i.logs.Debug("storage delete", zap.String("key", key))

	return i.store.Delete(ctx, key)
}

func (i *instrumentedStore) Keys(ctx context.Context) (keys []string, err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "keys")(0, err) }(time.Now())
	i.logs.Debug("storage keys")

	return i.store.Keys(ctx)
}

func (i *instrumentedStore) Clear(ctx context.Context) (err error) {
	defer func(t0 time.Time) { i.metrics.IORecord(t0, i.kind(), "clear")(0, err) }(time.Now())
	i.logs.Debug("storage clear")

	return i.store.Clear(ctx)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}

type countingReader struct {
	io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.n += int64(n)
	return n, err
}
