package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/oneconcern/stele/pkg/audit/status"
	"github.com/oneconcern/stele/pkg/clock"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setup(t testing.TB) *Log {
	return New(filepath.Join(t.TempDir(), "exec", model.ExecAuditFile), Logger(zaptest.NewLogger(t)))
}

func TestAppend(t *testing.T) {
	a := setup(t)
	pid := 42

	r, err := a.Append(model.EventStart, &pid, map[string]interface{}{"command": []string{"sleep", "1"}})
	require.NoError(t, err)
	_, err = ksuid.Parse(r.Token)
	require.NoError(t, err)

	_, err = a.Append(model.EventPause, &pid, nil)
	require.NoError(t, err)
	_, err = a.Append(model.EventKill, nil, nil)
	require.NoError(t, err)

	records, err := a.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.EventStart, records[0].Event)
	require.NotNil(t, records[0].PID)
	assert.Equal(t, 42, *records[0].PID)
	assert.Equal(t, []interface{}{"sleep", "1"}, records[0].Meta["command"])

	assert.Equal(t, model.EventPause, records[1].Event)
	assert.NotNil(t, records[1].Meta)

	assert.Equal(t, model.EventKill, records[2].Event)
	assert.Nil(t, records[2].PID)

	ts := make([]string, 0, len(records))
	for _, rec := range records {
		ts = append(ts, rec.TS)
	}
	assert.True(t, clock.Monotonic(ts))

	last, err := a.Last(model.EventPause)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, records[1].Token, last.Token)

	none, err := a.Last(model.EventResume)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRecordsMissingLog(t *testing.T) {
	a := setup(t)
	records, err := a.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordsSkipTruncated(t *testing.T) {
	a := setup(t)
	_, err := a.Append(model.EventStart, nil, nil)
	require.NoError(t, err)

	f, err := os.OpenFile(a.Path(), os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"token":"trunc`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := a.Records()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListEntries(t *testing.T) {
	a := setup(t)
	for i := 0; i < 10; i++ {
		_, err := a.Append(model.EventCheckpoint, nil, map[string]interface{}{"seq": i})
		require.NoError(t, err)
	}

	var (
		all  []model.AuditRecord
		next string
		i    int
	)
	for {
		entries, token, err := a.ListEntries(next, 3)
		require.NoError(t, err)
		all = append(all, entries...)
		i++
		if token == "" {
			break
		}
		next = token
	}
	assert.Equal(t, 4, i)
	require.Len(t, all, 10)
	for j, r := range all {
		assert.EqualValues(t, j, r.Meta["seq"])
	}

	_, _, err := a.ListEntries("", 0)
	assert.True(t, errors.Is(err, status.ErrMaxCount))

	_, _, err = a.ListEntries("unknown", 3)
	assert.True(t, errors.Is(err, status.ErrUnknownToken))
}

func TestConcurrentAppend(t *testing.T) {
	a := setup(t)
	other := New(a.Path())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log := a
			if i%2 == 0 {
				log = other
			}
			_, err := log.Append(model.EventCheckpoint, nil, map[string]interface{}{"seq": fmt.Sprint(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := a.Records()
	require.NoError(t, err)
	require.Len(t, records, n)

	tokens := make(map[string]struct{}, n)
	for _, r := range records {
		tokens[r.Token] = struct{}{}
	}
	assert.Len(t, tokens, n)
}
