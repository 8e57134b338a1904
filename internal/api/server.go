package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/ledger"
	"github.com/roach88/feedline/internal/metrics"
	"github.com/roach88/feedline/internal/store"
)

// Server serves one engine over HTTP.
type Server struct {
	engine  *engine.Engine
	ledger  *ledger.Memory
	store   *store.Store
	metrics *metrics.Collectors
	logger  *slog.Logger

	upgrader     websocket.Upgrader
	streamBuffer int
	pingInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists ledger writes to the statuses table.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithMetrics exposes c on /metrics.
func WithMetrics(c *metrics.Collectors) Option {
	return func(s *Server) { s.metrics = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCheckOrigin sets the websocket origin policy. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// WithPingInterval sets how often idle stream connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

// NewServer returns a server over eng. Ledger writes go to mem, which
// should be the ledger eng reads.
func NewServer(eng *engine.Engine, mem *ledger.Memory, opts ...Option) *Server {
	s := &Server{
		engine:       eng,
		ledger:       mem,
		logger:       slog.Default(),
		streamBuffer: 64,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the gin router.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/api/timelines", s.handleTimelines)
	r.GET("/api/timelines/:key", s.handleTimeline)
	r.POST("/api/events", s.handleEvents)
	r.GET("/api/events/:id", s.handleEvent)
	r.POST("/api/statuses", s.handleStatuses)
	r.DELETE("/api/statuses/:id", s.handleDeleteStatus)
	r.GET("/api/stream", s.handleStream)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "seq": s.engine.Clock().Current()})
}

// TimelineSummary is one entry of GET /api/timelines.
type TimelineSummary struct {
	Key    ir.TimelineKey `json:"key"`
	Items  int            `json:"items"`
	Queued int            `json:"queued"`
	Unread int            `json:"unread"`
	Online bool           `json:"online"`
	Top    bool           `json:"top"`
}

func (s *Server) handleTimelines(c *gin.Context) {
	snapshot := s.engine.Snapshot()
	summaries := make([]TimelineSummary, 0, len(snapshot))
	for _, key := range s.engine.Keys() {
		st, ok := snapshot[key]
		if !ok {
			continue
		}
		summaries = append(summaries, TimelineSummary{
			Key:    key,
			Items:  st.Items.Len(),
			Queued: st.QueuedItems.Len(),
			Unread: st.Unread,
			Online: st.Online,
			Top:    st.Top,
		})
	}
	c.JSON(http.StatusOK, gin.H{"timelines": summaries})
}

func (s *Server) handleTimeline(c *gin.Context) {
	key := ir.TimelineKey(c.Param("key"))
	st, ok := s.engine.Timeline(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "timeline not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "state": st})
}

func (s *Server) handleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}

	ev, err := event.ParseEnvelope(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change, err := s.engine.Dispatch(c.Request.Context(), ev)
	if err != nil {
		c.JSON(dispatchStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, change)
}

func (s *Server) handleEvent(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no journal attached"})
		return
	}

	rec, err := s.store.ReadEvent(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		s.logger.Error("read event failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read event failed"})
		return
	}

	ev, err := rec.Event()
	if err != nil {
		s.logger.Error("decode journaled event failed", "seq", rec.Seq, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decode event failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"seq":            rec.Seq,
		"id":             rec.ID,
		"kind":           rec.Kind,
		"payload":        ev,
		"engine_version": rec.EngineVersion,
	})
}

// dispatchStatus maps a dispatch error to an HTTP status.
func dispatchStatus(err error) int {
	var de *engine.DispatchError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case engine.ErrCodeInvalidEvent:
		return http.StatusBadRequest
	case engine.ErrCodeEngineStopped:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStatuses(c *gin.Context) {
	var status ir.Status
	if err := c.ShouldBindJSON(&status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if status.ID == "" || status.AccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and account_id required"})
		return
	}

	if s.store != nil {
		if err := s.store.WriteStatus(c.Request.Context(), status); err != nil {
			s.logger.Error("write status failed", "status", status.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "write status failed"})
			return
		}
	}
	s.ledger.Put(status)
	c.JSON(http.StatusOK, status)
}

// handleDeleteStatus purges a status and its direct reposts from every
// timeline, then forgets it. The cascade runs first because it resolves the
// author and reposts from the ledger.
func (s *Server) handleDeleteStatus(c *gin.Context) {
	id := ir.StatusID(c.Param("id"))
	if _, ok := s.ledger.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "status not found"})
		return
	}

	change, err := s.engine.DeleteFromTimelines(c.Request.Context(), id)
	if err != nil {
		c.JSON(dispatchStatus(err), gin.H{"error": err.Error()})
		return
	}

	if s.store != nil {
		if err := s.store.RemoveStatus(c.Request.Context(), id); err != nil {
			s.logger.Error("remove status failed", "status", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "remove status failed"})
			return
		}
	}
	s.ledger.Remove(id)
	c.JSON(http.StatusOK, change)
}
