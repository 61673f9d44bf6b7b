package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

func newTestMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	m, err := matcher.New([]*rule.Rule{
		{ID: "t.key", Name: "Key", Pattern: `key=(\w+)`},
		{ID: "t.num", Name: "Number", Pattern: `\d{3}`},
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func serve(t *testing.T, input string) []Response {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(newTestMatcher(t), strings.NewReader(input), &out, 2, nil)
	require.NoError(t, srv.Run(context.Background()))

	var resps []Response
	dec := json.NewDecoder(&out)
	for {
		var r Response
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else {
			require.NoError(t, err)
		}
		resps = append(resps, r)
	}
	return resps
}

func TestServer_Ready(t *testing.T) {
	resps := serve(t, "")
	require.Len(t, resps, 1)
	assert.True(t, resps[0].Success)
	assert.Equal(t, "ready", resps[0].Type)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resps[0].Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Equal(t, 2, ready.Rules)
}

func TestServer_Scan(t *testing.T) {
	resps := serve(t, `{"type":"scan","payload":{"source":"env","content":"x key=abc 1234"}}`+"\n")
	require.Len(t, resps, 2)
	assert.True(t, resps[1].Success)
	assert.Equal(t, "scan", resps[1].Type)

	var res ScanResult
	require.NoError(t, json.Unmarshal(resps[1].Data, &res))
	assert.Equal(t, "env", res.Source)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, Finding{RuleID: "t.key", RuleName: "Key", Start: 2, End: 9, Match: "key=abc", Groups: []string{"abc"}}, res.Findings[0])
	assert.Equal(t, "123", res.Findings[1].Match)
}

func TestServer_ScanBatchAndStats(t *testing.T) {
	input := `{"type":"scan_batch","payload":{"items":[{"source":"a","content":"nothing"},{"source":"b","content":"key=z"}]}}
{"type":"stats"}
`
	resps := serve(t, input)
	require.Len(t, resps, 3)

	var batch []ScanResult
	require.NoError(t, json.Unmarshal(resps[1].Data, &batch))
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].Source)
	assert.Empty(t, batch[0].Findings)
	assert.Len(t, batch[1].Findings, 1)

	var stats StatsData
	require.NoError(t, json.Unmarshal(resps[2].Data, &stats))
	assert.Equal(t, 2, stats.Rules)
	assert.Equal(t, int64(2), stats.Scanned)
}

func TestServer_CloseStopsReading(t *testing.T) {
	resps := serve(t, `{"type":"close"}`+"\n"+`{"type":"stats"}`+"\n")
	require.Len(t, resps, 2)
	assert.Equal(t, "close", resps[1].Type)
}

func TestServer_Errors(t *testing.T) {
	input := `{"type":"bogus"}
{"type":"scan","payload":"not an object"}
{"type":"stats"}
`
	resps := serve(t, input)
	require.Len(t, resps, 4)
	assert.False(t, resps[1].Success)
	assert.Contains(t, resps[1].Error, "bogus")
	assert.False(t, resps[2].Success)
	assert.Equal(t, "scan", resps[2].Type)
	assert.True(t, resps[3].Success, "errors do not end the session")
}

func TestServer_MalformedLine(t *testing.T) {
	resps := serve(t, `{"type":"stats"}`+"\n{oops\n")
	require.Len(t, resps, 3)
	assert.True(t, resps[1].Success)
	assert.Equal(t, "decode", resps[2].Type)
	assert.False(t, resps[2].Success)
}

func TestServer_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	srv := NewServer(newTestMatcher(t), pr, io.Discard, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ClosesInputOnReturn(t *testing.T) {
	pr, pw := io.Pipe()
	srv := NewServer(newTestMatcher(t), pr, io.Discard, 1, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	_, err := io.WriteString(pw, `{"type":"close"}`+"\n")
	require.NoError(t, err)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = io.WriteString(pw, `{"type":"stats"}`+"\n")
	assert.ErrorIs(t, err, io.ErrClosedPipe, "reader side is released")
}
