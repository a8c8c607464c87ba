// Package server exposes the follow queue over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/ingest"
	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/report"
)

const (
	reportRoutePath             = "/"
	healthRoutePath             = "/healthz"
	staticRoutePath             = "/static"
	stateRoutePath              = "/api/state"
	analyzeRoutePath            = "/api/analyze"
	profilesRoutePath           = "/api/profiles"
	profileOpenRoutePath        = "/api/profiles/:id/open"
	profileDoneRoutePath        = "/api/profiles/:id/done"
	profileUndoRoutePath        = "/api/profiles/:id/undo"
	queueBatchOpenRoutePath     = "/api/queues/:scope/batch-open"
	queueBatchDoneRoutePath     = "/api/queues/:scope/batch-done"
	queueProgressRoutePath      = "/api/queues/:scope/progress"
	htmlContentType             = "text/html; charset=utf-8"
	healthStatusKey             = "status"
	healthStatusOK              = "ok"
	errorMessageRenderFailure   = "report page rendering failed"
	logMessageRenderFailure     = "report render failure"
	logMessageStateLoadFailure  = "state load failure"
	ginModeRelease              = "release"
	errMessageMissingWorkflow   = "queue service is required"
	errMessageStaticAssetsSetup = "static assets"
)

// ErrMissingWorkflow indicates a router configured without a queue service.
var ErrMissingWorkflow = errors.New(errMessageMissingWorkflow)

// QueueService is the queue workflow the router drives. *actionqueue.Workflow
// implements it.
type QueueService interface {
	Analyze(ctx context.Context, followers []profiles.BaseProfile, following []profiles.BaseProfile) (profiles.AppState, error)
	State(ctx context.Context) (profiles.AppState, error)
	Dispatch(ctx context.Context, scope actionqueue.Scope, operation actionqueue.Operation) (actionqueue.DispatchOutcome, error)
	Reset(ctx context.Context) error
	BatchSize() int
}

// RouterConfig configures the HTTP routing.
type RouterConfig struct {
	Workflow QueueService
	Network  profiles.Network
	Logger   *zap.Logger
}

// NewRouter constructs a Gin engine serving the report page, the JSON API and the
// health check.
func NewRouter(configuration RouterConfig) (*gin.Engine, error) {
	if configuration.Workflow == nil {
		return nil, ErrMissingWorkflow
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(ginModeRelease)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware(logger))

	staticAssets, err := report.StaticAssets()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageStaticAssetsSetup, err)
	}
	engine.StaticFS(staticRoutePath, http.FS(staticAssets))

	handler := queueHandler{
		workflow: configuration.Workflow,
		loader:   ingest.NewLoader(configuration.Network.WithDefaults()),
		logger:   logger,
	}

	engine.GET(reportRoutePath, handler.serveReport)
	engine.GET(healthRoutePath, handler.healthStatus)

	engine.GET(stateRoutePath, handler.getState)
	engine.DELETE(stateRoutePath, handler.resetState)
	engine.POST(analyzeRoutePath, handler.analyze)
	engine.GET(profilesRoutePath, handler.listProfiles)
	engine.POST(profileOpenRoutePath, handler.profileOperation(actionqueue.Open))
	engine.POST(profileDoneRoutePath, handler.profileOperation(actionqueue.MarkDone))
	engine.POST(profileUndoRoutePath, handler.profileOperation(actionqueue.Undo))
	engine.POST(queueBatchOpenRoutePath, handler.batchOpen)
	engine.POST(queueBatchDoneRoutePath, handler.batchDone)
	engine.GET(queueProgressRoutePath, handler.queueProgress)

	return engine, nil
}

type queueHandler struct {
	workflow QueueService
	loader   ingest.Loader
	logger   *zap.Logger
}

func (handler queueHandler) serveReport(ginContext *gin.Context) {
	pageData := report.PageData{Interactive: true, BatchSize: handler.workflow.BatchSize()}
	state, err := handler.workflow.State(ginContext.Request.Context())
	switch {
	case err == nil:
		pageData.State = &state
	case errors.Is(err, actionqueue.ErrNoState):
	default:
		handler.logger.Error(logMessageStateLoadFailure, zap.Error(err))
		pageData.Errors = append(pageData.Errors, err.Error())
	}

	pageHTML, err := report.Render(pageData)
	if err != nil {
		handler.logger.Error(logMessageRenderFailure, zap.Error(err))
		ginContext.String(http.StatusInternalServerError, errorMessageRenderFailure)
		return
	}
	ginContext.Data(http.StatusOK, htmlContentType, []byte(pageHTML))
}

func (handler queueHandler) healthStatus(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, map[string]string{healthStatusKey: healthStatusOK})
}
