package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/history"
)

type memRecorder struct {
	mu   sync.Mutex
	recs []history.Record
	err  error
}

func (m *memRecorder) Add(ctx context.Context, r history.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	r.ID = int64(len(m.recs) + 1)
	m.recs = append(m.recs, r)
	return r.ID, nil
}

func (m *memRecorder) Recent(ctx context.Context, n int) ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var r []history.Record
	for i := len(m.recs) - 1; i >= 0 && len(r) < n; i-- {
		r = append(r, m.recs[i])
	}
	return r, nil
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(New(nil, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestEvalPost(t *testing.T) {
	rec := &memRecorder{}
	ts := httptest.NewServer(New(rec, nil).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/eval", "application/json", strings.NewReader(`{"expr":"log(2, 1 + 2 * (2 - 1) * 0.5) + 5 * (2 + 3) / 2"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body EvalResponse
	decode(t, resp, &body)
	require.NotNil(t, body.Value)
	assert.Equal(t, 13.5, float64(*body.Value))
	require.NotNil(t, body.RPN)
	assert.NotEmpty(t, *body.RPN)
	assert.Empty(t, body.Error)

	require.Len(t, rec.recs, 1)
	assert.Equal(t, 13.5, rec.recs[0].Value)
}

func TestEvalPostErrors(t *testing.T) {
	rec := &memRecorder{}
	ts := httptest.NewServer(New(rec, nil).Handler())
	defer ts.Close()

	cases := []struct {
		name string
		expr string
		kind calc.Kind
		pos  int
	}{
		{"empty", "", calc.InvalidExpression, 1},
		{"div", "1 / 0", calc.DivisionByZero, 2},
		{"log-domain", "log(0, 1)", calc.InvalidLogDomain, 1},
		{"log-args", "log(1)", calc.MalformedLog, 6},
		{"number", "1.2.3", calc.MalformedNumber, 1},
		{"unbalanced", "2 + (3 * 4", calc.InvalidExpression, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := json.Marshal(EvalRequest{Expr: c.expr})
			require.NoError(t, err)
			resp, err := http.Post(ts.URL+"/eval", "application/json", strings.NewReader(string(b)))
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			var body EvalResponse
			decode(t, resp, &body)
			assert.Nil(t, body.Value)
			assert.Nil(t, body.RPN)
			assert.Equal(t, c.kind.String(), body.Kind)
			assert.Equal(t, c.pos, body.Pos)
			assert.NotEmpty(t, body.Error)
		})
	}
	assert.Len(t, rec.recs, len(cases))
}

func TestEvalPostBadRequest(t *testing.T) {
	ts := httptest.NewServer(New(nil, nil).Handler())
	defer ts.Close()

	for _, body := range []string{`{"expr":`, `{"expression":"1"}`, `[]`} {
		resp, err := http.Post(ts.URL+"/eval", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestEvalQuery(t *testing.T) {
	ts := httptest.NewServer(New(nil, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/eval?expr=" + url.QueryEscape("(2 + 3) * 4"))
	require.NoError(t, err)
	var body EvalResponse
	decode(t, resp, &body)
	require.NotNil(t, body.Value)
	assert.Equal(t, 20.0, float64(*body.Value))
	assert.Equal(t, "2 3 + 5 4 *", *body.RPN)

	resp, err = http.Get(ts.URL + "/eval")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvalNonFinite(t *testing.T) {
	ts := httptest.NewServer(New(nil, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/eval?expr=" + url.QueryEscape("log(1, 1)"))
	require.NoError(t, err)
	var raw map[string]any
	decode(t, resp, &raw)
	assert.Equal(t, "NaN", raw["value"])

	resp, err = http.Get(ts.URL + "/eval?expr=" + url.QueryEscape("log(1, 2)"))
	require.NoError(t, err)
	var body EvalResponse
	decode(t, resp, &body)
	require.NotNil(t, body.Value)
	assert.True(t, math.IsInf(float64(*body.Value), 1))
}

func TestNumberJSON(t *testing.T) {
	cases := []struct {
		n    Number
		want string
	}{
		{14, `14`},
		{-0.5, `-0.5`},
		{1e21, `1e+21`},
		{Number(math.Inf(1)), `"+Inf"`},
		{Number(math.Inf(-1)), `"-Inf"`},
		{Number(math.NaN()), `"NaN"`},
	}
	for _, c := range cases {
		b, err := json.Marshal(c.n)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(b))
		var n Number
		require.NoError(t, json.Unmarshal(b, &n))
		if math.IsNaN(float64(c.n)) {
			assert.True(t, math.IsNaN(float64(n)))
		} else {
			assert.Equal(t, c.n, n)
		}
	}
}

func TestHistory(t *testing.T) {
	rec := &memRecorder{}
	ts := httptest.NewServer(New(rec, nil).Handler())
	defer ts.Close()

	for _, e := range []string{"1+1", "1/0", "2*3"} {
		resp, err := http.Get(ts.URL + "/eval?expr=" + url.QueryEscape(e))
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/history?limit=2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []HistoryEntry
	decode(t, resp, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "2*3", entries[0].Expr)
	require.NotNil(t, entries[0].Value)
	assert.Equal(t, 6.0, float64(*entries[0].Value))
	assert.Equal(t, "1/0", entries[1].Expr)
	assert.Nil(t, entries[1].Value)
	assert.Equal(t, calc.DivisionByZero.String(), entries[1].Kind)

	resp, err = http.Get(ts.URL + "/history?limit=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	rec.err = errors.New("disk on fire")
	resp, err = http.Get(ts.URL + "/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	ts := httptest.NewServer(New(nil, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecorderFailureStillEvaluates(t *testing.T) {
	rec := &memRecorder{err: errors.New("read-only")}
	ts := httptest.NewServer(New(rec, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/eval?expr=2")
	require.NoError(t, err)
	var body EvalResponse
	decode(t, resp, &body)
	require.NotNil(t, body.Value)
	assert.Equal(t, 2.0, float64(*body.Value))
}

func TestWebSocket(t *testing.T) {
	rec := &memRecorder{}
	ts := httptest.NewServer(New(rec, nil).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	cases := []struct {
		expr  string
		value float64
		kind  string
	}{
		{"2 + 3 * 4", 14, ""},
		{"-2.5 + 3.5", 1, ""},
		{"a+b", 0, calc.InvalidExpression.String()},
	}
	for _, c := range cases {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(c.expr)))
		var body EvalResponse
		require.NoError(t, conn.ReadJSON(&body))
		assert.Equal(t, c.expr, body.Expr)
		assert.Equal(t, c.kind, body.Kind)
		if c.kind == "" {
			require.NotNil(t, body.Value)
			assert.Equal(t, c.value, float64(*body.Value))
		}
	}
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
