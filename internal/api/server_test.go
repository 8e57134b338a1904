package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/ledger"
	"github.com/roach88/feedline/internal/metrics"
	"github.com/roach88/feedline/internal/store"
	"github.com/roach88/feedline/internal/timeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine  *engine.Engine
	ledger  *ledger.Memory
	store   *store.Store
	metrics *metrics.Collectors
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "feedline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mem := ledger.NewMemory()
	col := metrics.New(false)
	eng := engine.New(timeline.DefaultLimits(),
		engine.WithStore(st),
		engine.WithLedger(mem),
		engine.WithMetrics(col),
	)

	srv := NewServer(eng, mem,
		WithStore(st),
		WithMetrics(col),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &fixture{engine: eng, ledger: mem, store: st, metrics: col, handler: srv.Routes()}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","seq":0}`, rec.Body.String())
}

func TestPostEvent(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/events",
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"1"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var change engine.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &change))
	assert.Equal(t, int64(1), change.Seq)
	assert.Equal(t, event.KindUpdate, change.Kind)
	assert.Equal(t, []ir.TimelineKey{ir.TimelineHome}, change.Timelines)

	st, ok := f.engine.Timeline(ir.TimelineHome)
	require.True(t, ok)
	assert.Equal(t, []ir.StatusID{"1"}, st.Items.Slice())

	records, err := f.store.ReadEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPostEvent_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing kind", `{"payload":{}}`},
		{"unknown kind", `{"kind":"TIMELINE_EXPLODE","payload":{}}`},
		{"unknown payload field", `{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status":"1"}}`},
		{"fails validation", `{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, http.MethodPost, "/api/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Equal(t, int64(0), f.engine.Clock().Current())
		})
	}
}

func TestPostEvent_EngineStopped(t *testing.T) {
	f := newFixture(t)
	f.engine.Stop()

	rec := f.do(t, http.MethodPost, "/api/events",
		`{"kind":"TIMELINE_CONNECT","payload":{"timeline":"home"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ENGINE_STOPPED")
}

func TestGetTimelines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Dispatch(ctx, event.Update{Timeline: ir.TimelineHome, StatusID: "1"})
	require.NoError(t, err)
	_, err = f.engine.Dispatch(ctx, event.UpdateQueue{Timeline: ir.TimelinePublic, StatusID: "2"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/timelines", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Timelines []TimelineSummary `json:"timelines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []TimelineSummary{
		{Key: ir.TimelineHome, Items: 1, Top: true},
		{Key: ir.TimelinePublic, Queued: 1, Top: true},
	}, body.Timelines)
}

func TestGetTimeline(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Dispatch(context.Background(), event.Update{Timeline: "account:alice", StatusID: "5"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/timelines/account:alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Key   ir.TimelineKey `json:"key"`
		State timeline.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ir.TimelineKey("account:alice"), body.Key)
	assert.Equal(t, []ir.StatusID{"5"}, body.State.Items.Slice())

	rec = f.do(t, http.MethodGet, "/api/timelines/public", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/statuses",
		`{"id":"10","account_id":"alice","visibility":"public"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, ok := f.ledger.Get("10")
	require.True(t, ok)
	assert.Equal(t, "alice", got.AccountID)

	persisted, err := f.store.ReadStatus(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, got, persisted)

	rec = f.do(t, http.MethodPost, "/api/statuses", `{"id":"11"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/statuses", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostStatus_FeedsDeleteCascade(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{
		`{"id":"10","account_id":"alice","visibility":"public"}`,
		`{"id":"11","account_id":"bob","visibility":"public","reblog_of":"10"}`,
	} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/statuses", body).Code)
	}
	for _, body := range []string{
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"10"}}`,
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"11"}}`,
	} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/events", body).Code)
	}

	change, err := f.engine.DeleteFromTimelines(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 2, change.Removed)

	st, _ := f.engine.Timeline(ir.TimelineHome)
	assert.Equal(t, 0, st.Items.Len())
}

func TestDeleteStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"id":"10","account_id":"alice","visibility":"public"}`,
		`{"id":"11","account_id":"bob","visibility":"public","reblog_of":"10"}`,
	} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/statuses", body).Code)
	}
	for _, body := range []string{
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"10"}}`,
		`{"kind":"TIMELINE_UPDATE_QUEUE","payload":{"timeline":"public","status_id":"11"}}`,
	} {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/events", body).Code)
	}

	rec := f.do(t, http.MethodDelete, "/api/statuses/10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var change engine.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &change))
	assert.Equal(t, event.KindDelete, change.Kind)
	assert.Equal(t, 2, change.Removed)

	home, _ := f.engine.Timeline(ir.TimelineHome)
	assert.Zero(t, home.Items.Len())
	public, _ := f.engine.Timeline(ir.TimelinePublic)
	assert.Zero(t, public.QueuedItems.Len())

	_, ok := f.ledger.Get("10")
	assert.False(t, ok)
	_, err := f.store.ReadStatus(ctx, "10")
	assert.Error(t, err)

	// The repost stays in the ledger.
	_, ok = f.ledger.Get("11")
	assert.True(t, ok)

	rec = f.do(t, http.MethodDelete, "/api/statuses/10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEvent(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/events",
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"10"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var change engine.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &change))

	rec = f.do(t, http.MethodGet, "/api/events/"+change.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Seq     int64        `json:"seq"`
		ID      string       `json:"id"`
		Kind    event.Kind   `json:"kind"`
		Payload event.Update `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, change.Seq, got.Seq)
	assert.Equal(t, change.ID, got.ID)
	assert.Equal(t, event.KindUpdate, got.Kind)
	assert.Equal(t, event.Update{Timeline: ir.TimelineHome, StatusID: "10"}, got.Payload)

	rec = f.do(t, http.MethodGet, "/api/events/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/events",
		`{"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"1"}}`)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `feedline_events_dispatched_total{kind="TIMELINE_UPDATE"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	eng := engine.New(timeline.DefaultLimits())
	handler := NewServer(eng, ledger.NewMemory()).Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, err = f.engine.Dispatch(context.Background(), event.Update{Timeline: ir.TimelineHome, StatusID: "1"})
	require.NoError(t, err)
	_, err = f.engine.Dispatch(context.Background(), event.Connect{Timeline: ir.TimelinePublic})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first, second StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, StreamMessage{Seq: 1, Kind: "TIMELINE_UPDATE", Timelines: []ir.TimelineKey{"home"}}, first)
	assert.Equal(t, StreamMessage{Seq: 2, Kind: "TIMELINE_CONNECT", Timelines: []ir.TimelineKey{"public"}}, second)
}

func TestStream_RejectsForeignOrigin(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDispatchStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, dispatchStatus(&engine.DispatchError{Code: engine.ErrCodeInvalidEvent}))
	assert.Equal(t, http.StatusServiceUnavailable, dispatchStatus(&engine.DispatchError{Code: engine.ErrCodeEngineStopped}))
	assert.Equal(t, http.StatusInternalServerError, dispatchStatus(&engine.DispatchError{Code: engine.ErrCodeJournalFailed}))
	assert.Equal(t, http.StatusInternalServerError, dispatchStatus(io.EOF))
}
