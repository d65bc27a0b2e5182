package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/burn"
	"github.com/xkilldash9x/prunact/internal/store"
)

// PackageRequest is the body of /v1/generate and /v1/validate.
type PackageRequest struct {
	Package *act.ActionPackage      `json:"package"`
	Config  act.ActionPackageConfig `json:"config"`
}

// GenerateResponse is the plan of one generation run.
type GenerateResponse struct {
	RunID uuid.UUID      `json:"runId"`
	Steps []act.Step     `json:"steps"`
	Fail  bool           `json:"fail"`
	Log   []act.LogEntry `json:"log"`
}

// ValidateResponse answers whether a package can be generated as configured.
type ValidateResponse struct {
	NeedsConfigure bool                `json:"needsConfigure"`
	IsValidConfig  bool                `json:"isValidConfig"`
	Problems       []act.ConfigProblem `json:"problems"`
	Descriptions   []string            `json:"descriptions"`
}

// BurnResponse is a burn export.
type BurnResponse struct {
	Title string     `json:"title"`
	Rows  []burn.Row `json:"rows"`
	TSV   string     `json:"tsv"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func bindPackage(c *gin.Context) (PackageRequest, bool) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	if req.Package == nil {
		abort(c, http.StatusBadRequest, "package is required")
		return req, false
	}
	return req, true
}

func (s *Server) handleGenerate(c *gin.Context) {
	req, ok := bindPackage(c)
	if !ok {
		return
	}
	res, log := s.deps.Generator.Generate(c.Request.Context(), req.Package, req.Config, nil)

	run := store.RunRecord{
		PackageName: req.Package.Global.Name,
		Mode:        store.ModeGenerate,
		CreatedAt:   time.Now(),
		Result:      res,
		Log:         log,
	}
	var id uuid.UUID
	if s.deps.Recorder != nil {
		id = s.deps.Recorder.Record(run, nil)
	}
	if res.Steps == nil {
		res.Steps = []act.Step{}
	}
	if log == nil {
		log = []act.LogEntry{}
	}
	c.JSON(http.StatusOK, GenerateResponse{RunID: id, Steps: res.Steps, Fail: res.Fail, Log: log})
}

func (s *Server) handleValidate(c *gin.Context) {
	req, ok := bindPackage(c)
	if !ok {
		return
	}
	problems := act.ValidateConfig(s.deps.Registry, req.Package, req.Config)
	if problems == nil {
		problems = []act.ConfigProblem{}
	}
	c.JSON(http.StatusOK, ValidateResponse{
		NeedsConfigure: act.NeedsConfigure(s.deps.Registry, req.Package),
		IsValidConfig:  len(problems) == 0,
		Problems:       problems,
		Descriptions:   act.Describe(s.deps.Registry, req.Package, req.Config),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.deps.History == nil {
		abort(c, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.deps.History.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list runs.", zap.Error(err))
		abort(c, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleRunSteps(c *gin.Context) {
	if s.deps.History == nil {
		abort(c, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid run id")
		return
	}
	steps, err := s.deps.History.RunSteps(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("Failed to load run steps.", zap.Error(err), zap.String("run_id", id.String()))
		abort(c, http.StatusInternalServerError, "failed to load run steps")
		return
	}
	if len(steps) == 0 {
		abort(c, http.StatusNotFound, "run not found")
		return
	}
	c.JSON(http.StatusOK, steps)
}

// handleBurn takes the planets as repeated "param" values; the category and
// flow toggles are "false" to disable.
func (s *Server) handleBurn(c *gin.Context) {
	if s.deps.Sites == nil {
		abort(c, http.StatusServiceUnavailable, "game data is not loaded")
		return
	}
	opts := burn.DefaultOptions()
	opts.RedDays, opts.YellowDays = s.deps.Burn.RedDays, s.deps.Burn.YellowDays
	opts.Params = c.QueryArray("param")
	for name, field := range map[string]*bool{
		"red": &opts.Red, "yellow": &opts.Yellow, "green": &opts.Green, "inf": &opts.Inf,
		"workforce": &opts.Workforce, "production": &opts.Production,
	} {
		if v, ok := c.GetQuery(name); ok {
			*field = !strings.EqualFold(v, "false") && v != "0"
		}
	}

	rows := burn.Compute(s.deps.Sites, opts)
	if rows == nil {
		rows = []burn.Row{}
	}
	c.JSON(http.StatusOK, BurnResponse{
		Title: burn.Title(s.deps.Sites, opts.Params),
		Rows:  rows,
		TSV:   burn.TSV(rows),
	})
}
