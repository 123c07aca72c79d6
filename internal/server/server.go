package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	app "github.com/kode4food/renewal"
	"github.com/kode4food/renewal/internal/archive"
	"github.com/kode4food/renewal/internal/events"
	"github.com/kode4food/renewal/internal/renewal"
	"github.com/kode4food/renewal/internal/runlock"
	"github.com/kode4food/renewal/internal/store"
	"github.com/kode4food/renewal/pkg/api"
	"github.com/kode4food/renewal/pkg/util"
)

type (
	// Service starts runs and handles customer replies
	Service interface {
		Trigger(
			ctx context.Context, policyID string, override api.Channel,
		) (*api.TriggerResponse, error)
		Inbound(
			ctx context.Context, req *api.InboundRequest,
		) (*api.InboundResponse, error)
		Resolve(
			ctx context.Context, caseID int64, resolvedBy string,
		) (*api.EscalationCase, error)
	}

	// Store answers the read-only queries of the API
	Store interface {
		Ping(ctx context.Context) error
		Status(
			ctx context.Context, policyID string,
		) (*api.StatusResponse, error)
		WorkflowLogs(
			ctx context.Context, policyID string,
		) ([]*api.WorkflowLog, error)
		AuditLogs(ctx context.Context, policyID string) ([]*api.AuditLog, error)
		Overview(ctx context.Context, since time.Time) (*api.Overview, error)
		Escalations(
			ctx context.Context, status api.CaseStatus,
		) ([]*api.EscalationCase, error)
		Customers(
			ctx context.Context, segment string,
		) ([]*api.CustomerSummary, error)
		Policies(ctx context.Context) ([]*api.PolicySummary, error)
	}

	// Transcripts reads archived runs
	Transcripts interface {
		Get(
			ctx context.Context, policyID, runID string,
		) (*api.RunTranscript, error)
		Runs(ctx context.Context, policyID string) ([]string, error)
	}

	// Dependencies are the collaborators a Server is constructed with.
	// Transcripts and Hub are optional
	Dependencies struct {
		Service     Service
		Store       Store
		Transcripts Transcripts
		Hub         *events.Hub
		Now         func() time.Time
	}

	// Server implements the HTTP API server
	Server struct {
		service     Service
		store       Store
		transcripts Transcripts
		hub         *events.Hub
		now         func() time.Time
		sockets     util.Set[*Client]
		mu          sync.Mutex
	}
)

const overviewWindow = 24 * time.Hour

var (
	ErrInvalidJSON     = errors.New("invalid JSON request")
	ErrInvalidCaseID   = errors.New("invalid case id")
	ErrArchiveDisabled = errors.New("run archive is not configured")
	ErrStreamDisabled  = errors.New("event stream is not configured")
)

// NewServer creates a new HTTP API server
func NewServer(deps Dependencies) *Server {
	s := &Server{
		service:     deps.Service,
		store:       deps.Store,
		transcripts: deps.Transcripts,
		hub:         deps.Hub,
		now:         deps.Now,
		sockets:     util.Set[*Client]{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PATCH, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	ren := router.Group("/renewal")
	{
		ren.POST("/trigger", s.triggerRun)
		ren.POST("/webhook/inbound", s.receiveInbound)
		ren.GET("/status/:policyID", s.getStatus)
		ren.GET("/logs/:policyID", s.getWorkflowLogs)
		ren.GET("/runs/:policyID", s.listRuns)
		ren.GET("/runs/:policyID/:runID", s.getRun)
		ren.GET("/ws", s.handleWebSocket)
	}

	dash := router.Group("/dashboard")
	{
		dash.GET("/overview", s.getOverview)
		dash.GET("/escalations", s.listEscalations)
		dash.PATCH("/escalations/:caseID/resolve", s.resolveEscalation)
		dash.GET("/audit-logs/:policyID", s.getAuditLogs)
		dash.GET("/customers", s.listCustomers)
		dash.GET("/policies", s.listPolicies)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	res := api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  "healthy",
	}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		res.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrInvalidCaseID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrPolicyNotFound),
		errors.Is(err, store.ErrCaseNotFound),
		errors.Is(err, archive.ErrTranscriptNotFound):
		return http.StatusNotFound
	case errors.Is(err, renewal.ErrHumanControl),
		errors.Is(err, runlock.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrStreamDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
