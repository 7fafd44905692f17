// Package audit provides an append-only audit log.
//
// The audit log keeps track of all lifecycle events of an execution, one JSON
// record per line. Every record carries a k-sortable token.
//
// Records are appended with a single write on a file opened with O_APPEND, so that
// the engine and the supervised process may both log events to the same file.
package audit

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oneconcern/stele/pkg/audit/status"
	"github.com/oneconcern/stele/pkg/clock"
	"github.com/oneconcern/stele/pkg/metrics"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	maxEntriesPerList = 1000
	maxRecordSize     = 1024 * 1024
)

var (
	eventMetrics     *metrics.EventMetrics
	eventMetricsOnce sync.Once
)

func events() *metrics.EventMetrics {
	eventMetricsOnce.Do(func() {
		eventMetrics = metrics.NewEventMetrics("audit")
	})
	return eventMetrics
}

// Log describes an audit log
type Log struct {
	path  string
	fs    afero.Fs
	clock *clock.LogicalClock
	l     *zap.Logger
	mx    sync.Mutex
}

// Option for the audit log
type Option func(*Log)

// Fs sets the file system holding the log. Defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(a *Log) {
		if fs != nil {
			a.fs = fs
		}
	}
}

// Clock sets the logical clock used to timestamp records
func Clock(c *clock.LogicalClock) Option {
	return func(a *Log) {
		if c != nil {
			a.clock = c
		}
	}
}

// Logger sets a logger for this audit log
func Logger(logger *zap.Logger) Option {
	return func(a *Log) {
		if logger != nil {
			a.l = logger
		}
	}
}

// New audit log at path. The file is created on the first append.
func New(path string, options ...Option) *Log {
	a := &Log{
		path:  path,
		fs:    afero.NewOsFs(),
		clock: clock.NewLogicalClock(),
		l:     zap.NewNop(),
	}
	for _, apply := range options {
		apply(a)
	}
	return a
}

// Path to the log file
func (a *Log) Path() string {
	return a.path
}

// Append an event to the audit log.
//
// pid may be nil when no process is involved.
func (a *Log) Append(event model.AuditEvent, pid *int, meta map[string]interface{}) (*model.AuditRecord, error) {
	token, err := ksuid.NewRandomWithTime(time.Now())
	if err != nil {
		return nil, status.ErrKSUID.Wrap(err)
	}

	r := &model.AuditRecord{
		Token: token.String(),
		TS:    a.clock.Tick(),
		Event: event,
		PID:   pid,
		Meta:  meta,
	}
	line, err := model.MarshalAuditRecord(r)
	if err != nil {
		return nil, status.ErrAppend.WrapWithLog(a.l, err, zap.String("event", string(event)))
	}

	a.mx.Lock()
	defer a.mx.Unlock()

	if err = a.fs.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return nil, status.ErrAppend.WrapWithLog(a.l, err, zap.String("path", a.path))
	}
	f, err := a.fs.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, status.ErrAppend.WrapWithLog(a.l, err, zap.String("path", a.path))
	}
	defer f.Close()

	if _, err = f.Write(line); err != nil {
		return nil, status.ErrAppend.WrapWithLog(a.l, err, zap.String("path", a.path))
	}

	events().Inc(string(event))
	a.l.Debug("audit", zap.String("event", string(event)), zap.String("token", r.Token))
	return r, nil
}

// Records returns all records in the log, in append order.
//
// A missing log holds no record. Lines which cannot be decoded, such as a record
// truncated by a crash, are skipped.
func (a *Log) Records() ([]model.AuditRecord, error) {
	b, err := afero.ReadFile(a.fs, a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.AuditRecord{}, nil
		}
		return nil, status.ErrRead.Wrap(err)
	}

	records := make([]model.AuditRecord, 0, bytes.Count(b, []byte{'\n'}))
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		r, erm := model.UnmarshalAuditRecord(line)
		if erm != nil {
			a.l.Warn("skipping invalid audit record", zap.String("path", a.path), zap.Int("line", lineno), zap.Error(erm))
			continue
		}
		records = append(records, *r)
	}
	if err = scanner.Err(); err != nil {
		return nil, status.ErrRead.Wrap(err)
	}
	return records, nil
}

// ListEntries reads the log starting after the record with token fromToken. If fromToken is empty it reads from the beginning.
//
// The returned next token is not empty when more records can be listed:
// use it as fromToken to paginate to the next set of records.
func (a *Log) ListEntries(fromToken string, max int) (entries []model.AuditRecord, next string, err error) {
	if max <= 0 {
		return nil, "", status.ErrMaxCount
	}
	if max > maxEntriesPerList {
		max = maxEntriesPerList
	}

	records, err := a.Records()
	if err != nil {
		return nil, "", err
	}

	start := 0
	if fromToken != "" {
		start = -1
		for i, r := range records {
			if r.Token == fromToken {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", status.ErrUnknownToken.WrapMessage(fromToken)
		}
	}

	end := start + max
	if end >= len(records) {
		return records[start:], "", nil
	}
	entries = records[start:end]
	return entries, entries[len(entries)-1].Token, nil
}

// Last returns the most recent record with some event, or nil
func (a *Log) Last(event model.AuditEvent) (*model.AuditRecord, error) {
	records, err := a.Records()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Event == event {
			return &records[i], nil
		}
	}
	return nil, nil
}
