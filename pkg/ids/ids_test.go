package ids

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFormatAndUniqueness(t *testing.T) {
	rex := regexp.MustCompile(`^[a-z]+-\d{8}T\d{6}-\w{8}$`)
	seen := make(map[string]struct{}, 3000)

	for i := 0; i < 1000; i++ {
		for _, fn := range []func() string{NewExecutionID, NewRunID, NewBranchID} {
			v := fn()
			require.Regexp(t, rex, v)
			seen[v] = struct{}{}
		}
	}
	assert.Len(t, seen, 3000)
}

func TestParse(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Second)
	id := NewRunID()

	kind, created, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, KindRun, kind)
	assert.False(t, created.Before(before))
	assert.True(t, Valid(id))

	for _, bad := range []string{"", "run", "run-2024-abcdefgh", "RUN-20240101T000000-abcdef01", "run-20241301T000000-abcdef01"} {
		assert.Falsef(t, Valid(bad), "expected %q to be invalid", bad)
	}
}
