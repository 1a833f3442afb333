package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf)
	j.Record("tool_call", log.String("tool", "get_race"), log.Any("args", map[string]any{
		"race_id": "demo_mexico_2024",
	}))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, `{"ts":"`), line)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "tool_call", got["type"])
	assert.Equal(t, "get_race", got["tool"])
	assert.Equal(t, map[string]any{"race_id": "demo_mexico_2024"}, got["args"])
	ts, err := time.Parse(tsLayout, got["ts"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
	assert.NotContains(t, got, "level")
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "interactions.jsonl")
	for i := 0; i < 2; i++ {
		j, err := Open(path)
		require.NoError(t, err)
		j.Record("llm_exchange", log.String("request", "hi"))
		require.NoError(t, j.Close())
	}
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	j.Record("ignored")
	assert.NoError(t, j.Close())
}
