package layupd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type HTTPServer struct {
	engine   *gin.Engine
	store    *RunStore
	Executor *RunExecutor
}

type createRunRequest struct {
	RunID string   `json:"run_id,omitempty"`
	Input RunInput `json:"input"`
	// Start starts the run right after creating it
	Start bool `json:"start,omitempty"`
}

func NewHTTPServer(store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{
		engine:   gin.New(),
		store:    store,
		Executor: executor,
	}
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.POST("/v1/evaluate", s.handleEvaluate)

	runs := s.engine.Group("/v1/runs")
	runs.POST("", s.handleCreateRun)
	runs.GET("", s.handleListRuns)
	runs.GET("/:id", s.handleGetRun)
	runs.POST("/:id/start", s.handleStartRun)
	runs.POST("/:id/stop", s.handleStopRun)
	runs.GET("/:id/result", s.handleGetResult)
	runs.GET("/:id/trace", s.handleGetTrace)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *HTTPServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreateRun handles POST /v1/runs. The body is either a createRunRequest
// as JSON or the problem itself as YAML, with run_id, start and callback_url
// taken from the query.
func (s *HTTPServer) handleCreateRun(c *gin.Context) {
	var req createRunRequest
	switch c.ContentType() {
	case "application/yaml", "application/x-yaml", "text/yaml":
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.writeError(c, http.StatusBadRequest, err)
			return
		}
		req = createRunRequest{
			RunID: c.Query("run_id"),
			Input: RunInput{
				ProblemYAML: string(body),
				CallbackURL: c.Query("callback_url"),
				OutputDir:   c.Query("output_dir"),
			},
			Start: c.Query("start") == "true",
		}
	default:
		if err := c.ShouldBindJSON(&req); err != nil {
			s.writeError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	rec, err := s.store.Create(req.RunID, req.Input)
	if err != nil {
		s.writeError(c, statusFor(err, http.StatusBadRequest), err)
		return
	}
	logger.Info("run created", "run_id", rec.Run.ID)

	if req.Start {
		rec, err = s.Executor.Start(rec.Run.ID)
		if err != nil {
			s.writeError(c, statusFor(err, http.StatusInternalServerError), err)
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"run": rec.Run})
}

func (s *HTTPServer) handleListRuns(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(c, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = n
	}
	var status models.RunStatus
	if v := c.Query("status"); v != "" {
		if status = models.ParseRunStatus(v); status == "" {
			s.writeError(c, http.StatusBadRequest, fmt.Errorf("invalid status: %s", v))
			return
		}
	}
	recs := s.store.List(limit, status)
	runs := make([]Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *HTTPServer) handleGetRun(c *gin.Context) {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		s.writeError(c, http.StatusNotFound, ErrRunNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": rec.Run})
}

func (s *HTTPServer) handleStartRun(c *gin.Context) {
	rec, err := s.Executor.Start(c.Param("id"))
	if err != nil {
		s.writeError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	logger.Info("run started", "run_id", rec.Run.ID)
	c.JSON(http.StatusOK, gin.H{"run": rec.Run})
}

func (s *HTTPServer) handleStopRun(c *gin.Context) {
	rec, err := s.Executor.Stop(c.Param("id"))
	if err != nil {
		s.writeError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	logger.Info("run cancelled", "run_id", rec.Run.ID)
	c.JSON(http.StatusOK, gin.H{"run": rec.Run})
}

// handleGetResult handles GET /v1/runs/:id/result?format=json|xlsx|html
func (s *HTTPServer) handleGetResult(c *gin.Context) {
	r, ok := s.report(c)
	if !ok {
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		c.JSON(http.StatusOK, r)
		return
	case "xlsx":
		contentType = xlsxContentType
		err = report.WriteWorkbook(&buf, r)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.RunID+".xlsx"))
	case "html":
		if r.Best == nil || len(r.Best.Trace) == 0 {
			s.writeError(c, http.StatusConflict, fmt.Errorf("run has no trace"))
			return
		}
		contentType = "text/html; charset=utf-8"
		err = report.WriteTraceChart(&buf, r)
	default:
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("unknown format: %s", format))
		return
	}
	if err != nil {
		logger.Error("failed to render result", "run_id", r.RunID, "error", err)
		s.writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *HTTPServer) handleGetTrace(c *gin.Context) {
	r, ok := s.report(c)
	if !ok {
		return
	}
	if r.Best == nil {
		s.writeError(c, http.StatusConflict, fmt.Errorf("run has no feasible design"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":   r.RunID,
		"instance": r.BestIndex,
		"trace":    r.Best.Trace,
	})
}

func (s *HTTPServer) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	a, err := Evaluate(req)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// report returns the stored report of the :id run or writes the error response
func (s *HTTPServer) report(c *gin.Context) (*report.Report, bool) {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		s.writeError(c, http.StatusNotFound, ErrRunNotFound)
		return nil, false
	}
	if rec.Report == nil {
		s.writeError(c, http.StatusConflict, fmt.Errorf("result not available: run is %s", rec.Run.Status))
		return nil, false
	}
	return rec.Report, true
}

func (s *HTTPServer) writeError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRunExists), errors.Is(err, ErrRunTerminal):
		return http.StatusConflict
	case errors.Is(err, ErrRunIDMissing):
		return http.StatusBadRequest
	default:
		return fallback
	}
}
