package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/ingest"
	"github.com/f-sync/followqueue/internal/profiles"
)

const (
	formFieldFollowers       = "followers"
	formFieldFollowing       = "following"
	pathParameterProfileID   = "id"
	pathParameterScope       = "scope"
	queryParameterScope      = "scope"
	queryParameterFilter     = "filter"
	queryParameterQuery      = "q"
	queryParameterLimit      = "limit"
	errMessageInvalidLimit   = "limit must be a positive integer"
	errMessageReadUpload     = "read upload"
	logMessageRequestFailed  = "request failed"
	logMessageAnalysisFailed = "analysis rejected"
	logFieldError            = "error"
)

var errInvalidLimit = errors.New(errMessageInvalidLimit)

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	State    profiles.AppState               `json:"state"`
	Progress actionqueue.Progress            `json:"progress"`
	Queues   map[string]actionqueue.Progress `json:"queues"`
}

type profilesResponse struct {
	Profiles []profiles.AnalyzedProfile `json:"profiles"`
	Progress actionqueue.Progress       `json:"progress"`
}

type operationResponse struct {
	State       profiles.AppState        `json:"state"`
	Navigations []actionqueue.Navigation `json:"navigations"`
	Progress    actionqueue.Progress     `json:"progress"`
	Changed     bool                     `json:"changed"`
}

func newStateResponse(state profiles.AppState) stateResponse {
	queues := make(map[string]actionqueue.Progress, len(profiles.RelationshipTypes))
	for _, relationshipType := range profiles.RelationshipTypes {
		queues[string(relationshipType)] = actionqueue.Measure(state.ProfilesOfType(relationshipType))
	}
	return stateResponse{State: state, Progress: actionqueue.Measure(state.Profiles), Queues: queues}
}

func newOperationResponse(outcome actionqueue.DispatchOutcome, scope actionqueue.Scope) operationResponse {
	navigations := outcome.Navigations
	if navigations == nil {
		navigations = []actionqueue.Navigation{}
	}
	return operationResponse{
		State:       outcome.State,
		Navigations: navigations,
		Progress:    actionqueue.Measure(scope.Select(outcome.State.Profiles)),
		Changed:     outcome.Changed,
	}
}

func statusForError(err error) int {
	switch {
	case ingest.IsMissingInput(err):
		return http.StatusBadRequest
	case ingest.IsEmptyResult(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, actionqueue.ErrNoState):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrUnknownRelationship),
		errors.Is(err, actionqueue.ErrUnknownFilter),
		errors.Is(err, actionqueue.ErrMissingProfileID),
		errors.Is(err, actionqueue.ErrUnknownOperation),
		errors.Is(err, errInvalidLimit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (handler queueHandler) writeError(ginContext *gin.Context, err error) {
	statusCode := statusForError(err)
	if statusCode >= http.StatusInternalServerError {
		handler.logger.Error(logMessageRequestFailed,
			zap.String(logFieldRequestID, ginContext.GetString(requestIDContextKey)),
			zap.Error(err),
		)
	}
	ginContext.JSON(statusCode, errorResponse{Error: err.Error()})
}

func (handler queueHandler) getState(ginContext *gin.Context) {
	state, err := handler.workflow.State(ginContext.Request.Context())
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, newStateResponse(state))
}

func (handler queueHandler) resetState(ginContext *gin.Context) {
	if err := handler.workflow.Reset(ginContext.Request.Context()); err != nil {
		handler.writeError(ginContext, err)
		return
	}
	ginContext.Status(http.StatusNoContent)
}

func (handler queueHandler) analyze(ginContext *gin.Context) {
	followersFile, err := openFormFile(ginContext, formFieldFollowers)
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	if followersFile != nil {
		defer followersFile.Close()
	}
	followingFile, err := openFormFile(ginContext, formFieldFollowing)
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	if followingFile != nil {
		defer followingFile.Close()
	}

	sources := ingest.Sources{}
	if followersFile != nil {
		sources.Followers = followersFile
	}
	if followingFile != nil {
		sources.Following = followingFile
	}

	ctx := ginContext.Request.Context()
	pair, err := handler.loader.LoadPair(ctx, sources)
	if err != nil {
		handler.logger.Info(logMessageAnalysisFailed,
			zap.String(logFieldRequestID, ginContext.GetString(requestIDContextKey)),
			zap.String(logFieldError, err.Error()),
		)
		handler.writeError(ginContext, err)
		return
	}
	state, err := handler.workflow.Analyze(ctx, pair.Followers, pair.Following)
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, newStateResponse(state))
}

// openFormFile returns nil without an error when the field is absent so the loader
// reports the missing list.
func openFormFile(ginContext *gin.Context, fieldName string) (multipart.File, error) {
	fileHeader, err := ginContext.FormFile(fieldName)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", errMessageReadUpload, fieldName, err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", errMessageReadUpload, fieldName, err)
	}
	return file, nil
}

func (handler queueHandler) listProfiles(ginContext *gin.Context) {
	scope, err := actionqueue.ParseScope(ginContext.Query(queryParameterScope))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	filter, err := actionqueue.ParseFilter(ginContext.Query(queryParameterFilter))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	state, err := handler.workflow.State(ginContext.Request.Context())
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}

	scopedProfiles := scope.Select(state.Profiles)
	listed := profiles.Search(actionqueue.FilterProfiles(scopedProfiles, filter), ginContext.Query(queryParameterQuery))
	ginContext.JSON(http.StatusOK, profilesResponse{Profiles: listed, Progress: actionqueue.Measure(scopedProfiles)})
}

func (handler queueHandler) profileOperation(newOperation func(profileID string) actionqueue.Operation) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		handler.dispatch(ginContext, actionqueue.AllProfiles, newOperation(ginContext.Param(pathParameterProfileID)))
	}
}

func (handler queueHandler) batchOpen(ginContext *gin.Context) {
	scope, err := actionqueue.ParseScope(ginContext.Param(pathParameterScope))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	limit, err := parseLimit(ginContext.Query(queryParameterLimit))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	handler.dispatch(ginContext, scope, actionqueue.BatchOpen(limit))
}

func (handler queueHandler) batchDone(ginContext *gin.Context) {
	scope, err := actionqueue.ParseScope(ginContext.Param(pathParameterScope))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	handler.dispatch(ginContext, scope, actionqueue.BatchMarkDone())
}

func (handler queueHandler) queueProgress(ginContext *gin.Context) {
	scope, err := actionqueue.ParseScope(ginContext.Param(pathParameterScope))
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	state, err := handler.workflow.State(ginContext.Request.Context())
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, actionqueue.Measure(scope.Select(state.Profiles)))
}

func (handler queueHandler) dispatch(ginContext *gin.Context, scope actionqueue.Scope, operation actionqueue.Operation) {
	outcome, err := handler.workflow.Dispatch(ginContext.Request.Context(), scope, operation)
	if err != nil {
		handler.writeError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, newOperationResponse(outcome, scope))
}

// parseLimit returns 0 for an absent limit, which selects the configured batch size.
func parseLimit(rawLimit string) (int, error) {
	trimmedLimit := strings.TrimSpace(rawLimit)
	if trimmedLimit == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(trimmedLimit)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidLimit, rawLimit)
	}
	return limit, nil
}
