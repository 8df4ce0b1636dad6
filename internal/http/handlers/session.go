package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/http/response"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/radar"
	"github.com/edgeslab/edges-backend/internal/services"
	"github.com/edgeslab/edges-backend/internal/session"
	"github.com/edgeslab/edges-backend/internal/usage"
)

type SessionHandler struct {
	log     *logger.Logger
	store   *session.Store
	evals   services.EvaluationService
	usage   services.UsageService
	scoring services.ScoringService
	metrics *observability.Metrics
	chart   radar.RenderOptions
}

func NewSessionHandler(
	log *logger.Logger,
	store *session.Store,
	evals services.EvaluationService,
	usageSvc services.UsageService,
	scoring services.ScoringService,
	metrics *observability.Metrics,
	chart radar.RenderOptions,
) *SessionHandler {
	return &SessionHandler{
		log:     log.With("handler", "SessionHandler"),
		store:   store,
		evals:   evals,
		usage:   usageSvc,
		scoring: scoring,
		metrics: metrics,
		chart:   chart,
	}
}

type sessionView struct {
	session.Snapshot
	Usage services.UsageSnapshot `json:"usage"`
}

// session resolves the caller's session. A freshly created session is loaded
// from storage before it is returned; a failed load is logged and the empty
// session is served.
func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	id, ok := identityFrom(c)
	if !ok {
		return nil, false
	}
	s, created := h.store.Get(*id)
	if created {
		h.metrics.SetSessionsActive(h.store.Len())
		if err := h.load(c.Request.Context(), s, *id); err != nil {
			h.log.Warn("initial session load failed", "user_id", id.UserID.String(), "error", err)
		}
	}
	return s, true
}

// load fetches saved evaluations and the usage counter concurrently and
// applies them if no newer load or sign-in superseded this one.
func (h *SessionHandler) load(ctx context.Context, s *session.Session, id ctxutil.Identity) error {
	ticket := s.BeginLoad()

	var (
		concepts []evaluation.Concept
		snap     services.UsageSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		concepts, err = h.evals.List(gctx, id.UserID)
		return err
	})
	g.Go(func() error {
		snap = h.usage.Snapshot(gctx, id.UserID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return s.ApplyLoad(ticket, concepts, snap.EvaluationsUsed, snap.Status != usage.StatusUnknown)
}

func (h *SessionHandler) view(c *gin.Context, s *session.Session) sessionView {
	snap := s.Snapshot()
	return sessionView{Snapshot: snap, Usage: h.usage.Snapshot(c.Request.Context(), snap.UserID)}
}

// GET /api/session
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"session": h.view(c, s)})
}

// POST /api/session/load
func (h *SessionHandler) Load(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.load(c.Request.Context(), s, s.Identity()); err != nil {
		if errors.Is(err, session.ErrStaleLoad) || errors.Is(err, session.ErrClosed) {
			response.RespondAPIError(c, apierr.New(http.StatusConflict, "stale_load", err))
			return
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": h.view(c, s)})
}

// DELETE /api/session
func (h *SessionHandler) SignOut(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	existed := h.store.SignOut(id.UserID)
	h.metrics.SetSessionsActive(h.store.Len())
	response.RespondOK(c, gin.H{"signedOut": existed})
}

// POST /api/session/concepts
func (h *SessionHandler) AddConcept(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var in evaluation.Concept
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in.Source = evaluation.SourceManual
	added, err := s.AddConcept(in)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"concept": added, "session": h.view(c, s)})
}

// POST /api/session/concepts/ai
func (h *SessionHandler) AddAIConcept(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req services.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	added, err := s.AddConcept(h.scoring.Score(req))
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"concept": added, "session": h.view(c, s)})
}

type renameRequest struct {
	Name string `json:"name"`
}

// PATCH /api/session/concepts/:index
func (h *SessionHandler) RenameConcept(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	renamed, err := s.RenameConcept(idx, req.Name)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concept": renamed, "session": h.view(c, s)})
}

// DELETE /api/session/concepts/:index
func (h *SessionHandler) RemoveConcept(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	removed, err := s.RemoveConcept(idx)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"removed": removed, "session": h.view(c, s)})
}

// POST /api/session/concepts/:index/save
func (h *SessionHandler) SaveConcept(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	concept, err := s.Concept(idx)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	id := s.Identity()
	res, err := h.evals.Save(c.Request.Context(), id.UserID, concept)
	if err != nil {
		// the local concept stays in the session either way
		response.RespondAPIError(c, err)
		return
	}
	s.ConfirmRemoteCount(res.Usage.EvaluationsUsed)
	response.RespondOK(c, gin.H{"evaluation": res.Evaluation, "usage": res.Usage, "session": s.Snapshot()})
}

type highlightRequest struct {
	Name string `json:"name"`
}

// POST /api/session/highlight
func (h *SessionHandler) Highlight(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	current := s.ToggleHighlight(req.Name)
	var highlighted *string
	if current != "" {
		highlighted = &current
	}
	response.RespondOK(c, gin.H{"highlightedConcept": highlighted})
}

type formRequest struct {
	Show *bool `json:"show" binding:"required"`
}

// POST /api/session/form
func (h *SessionHandler) SetForm(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	s.SetShowForm(*req.Show)
	response.RespondOK(c, gin.H{"showForm": *req.Show})
}

// GET /api/session/chart
func (h *SessionHandler) Chart(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	concepts := s.Concepts()
	h.metrics.ChartRendered("json")
	response.RespondOK(c, gin.H{
		"data":     radar.Rows(concepts),
		"config":   radar.Config(concepts),
		"averages": radar.Averages(concepts),
	})
}

// GET /api/session/chart.html
func (h *SessionHandler) ChartHTML(c *gin.Context) {
	h.renderChart(c, "html", "text/html; charset=utf-8", radar.RenderHTML)
}

// GET /api/session/chart.png
func (h *SessionHandler) ChartPNG(c *gin.Context) {
	h.renderChart(c, "png", "image/png", radar.RenderPNG)
}

func (h *SessionHandler) renderChart(c *gin.Context, format, contentType string, render func(w io.Writer, concepts []*evaluation.Concept, o radar.RenderOptions) error) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	opts := h.chart
	if title := c.Query("title"); title != "" {
		opts.Title = title
	}
	var buf bytes.Buffer
	if err := render(&buf, s.Concepts(), opts); err != nil {
		h.log.Error("render chart failed", "format", format, "error", err)
		response.RespondAPIError(c, apierr.New(http.StatusInternalServerError, "render_failed", errors.New("could not render chart")))
		return
	}
	h.metrics.ChartRendered(format)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func indexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_index", errors.New("index must be a non-negative integer"))
		return 0, false
	}
	return idx, true
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.RespondAPIError(c, apierr.NotFound("concept_not_found", err))
	case errors.Is(err, evaluation.ErrInvalidConcept):
		response.RespondAPIError(c, apierr.BadRequest("invalid_concept", err))
	case errors.Is(err, session.ErrClosed):
		response.RespondAPIError(c, apierr.New(http.StatusConflict, "session_closed", err))
	default:
		response.RespondAPIError(c, err)
	}
}
