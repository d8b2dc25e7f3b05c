package workflow

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/claimflow/claimflow/internal/domain/adjudication"
	"github.com/claimflow/claimflow/internal/domain/eob"
	"github.com/claimflow/claimflow/internal/platform/auth"
)

type Handler struct {
	orch  *Orchestrator
	batch *BatchSubmitter
}

func NewHandler(orch *Orchestrator, batch *BatchSubmitter) *Handler {
	return &Handler{orch: orch, batch: batch}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	process := api.Group("", auth.RequireRole(auth.RoleAdjuster, auth.RoleAdmin))
	process.POST("/claims/:id/process", h.ProcessClaim)
	process.POST("/claims/process-batch", h.ProcessBatch)

	read := api.Group("", auth.RequireRole(auth.RoleAdjuster, auth.RoleAuditor))
	read.GET("/workflows", h.ListActiveWorkflows)
	read.GET("/workflows/:id", h.GetWorkflow)
	read.GET("/claims/:id/decisions", h.ListClaimDecisions)
	read.GET("/claims/:id/eob", h.GetClaimEOB)

	cancel := api.Group("", auth.RequireRole(auth.RoleAdjuster, auth.RoleAdmin))
	cancel.DELETE("/workflows/:id", h.CancelWorkflow)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/workflows/config", h.GetConfiguration)
	admin.PATCH("/workflows/config", h.UpdateConfiguration)
}

func (h *Handler) ProcessClaim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var opts ProcessOptions
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if opts.Initiator == "" {
		opts.Initiator = auth.UserIDFromContext(c.Request().Context())
	}

	result, err := h.orch.ProcessClaim(c.Request().Context(), id, opts)
	switch {
	case errors.Is(err, ErrWorkflowCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrClaimFinalized):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	ClaimIDs []uuid.UUID `json:"claim_ids"`
}

type batchResponse struct {
	Queued     int `json:"queued"`
	QueueDepth int `json:"queue_depth"`
}

func (h *Handler) ProcessBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.ClaimIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "claim_ids is required")
	}
	depth := h.batch.SubmitBatch(req.ClaimIDs)
	return c.JSON(http.StatusAccepted, batchResponse{Queued: len(req.ClaimIDs), QueueDepth: depth})
}

func (h *Handler) ListActiveWorkflows(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.GetActiveWorkflows())
}

func (h *Handler) GetWorkflow(c echo.Context) error {
	e, err := h.orch.GetWorkflowStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "workflow not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListClaimDecisions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	decisions, err := h.orch.ListDecisions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if decisions == nil {
		decisions = []*adjudication.Decision{}
	}
	return c.JSON(http.StatusOK, decisions)
}

// GetClaimEOB renders the explanation of benefits for the claim's latest
// decision. The representation follows the Accept header; JSON is the
// default.
func (h *Handler) GetClaimEOB(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, err := h.orch.GenerateEOB(c.Request().Context(), id)
	switch {
	case errors.Is(err, ErrNoDecision):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	r := rendererFor(c.Request().Header.Get("Accept"))
	out, err := r.Render(doc)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, r.ContentType(), out)
}

func rendererFor(accept string) eob.Renderer {
	switch {
	case strings.Contains(accept, "text/html"):
		return eob.HTMLRenderer{}
	case strings.Contains(accept, "text/plain"):
		return eob.TextRenderer{}
	}
	return eob.JSONRenderer{}
}

type cancelResponse struct {
	WorkflowID string `json:"workflow_id"`
	Cancelled  bool   `json:"cancelled"`
}

func (h *Handler) CancelWorkflow(c echo.Context) error {
	id := c.Param("id")
	if !h.orch.CancelWorkflow(id) {
		return echo.NewHTTPError(http.StatusConflict, "workflow is not active")
	}
	return c.JSON(http.StatusOK, cancelResponse{WorkflowID: id, Cancelled: true})
}

func (h *Handler) GetConfiguration(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Configuration())
}

func (h *Handler) UpdateConfiguration(c echo.Context) error {
	var patch ConfigPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, err := h.orch.UpdateConfiguration(patch)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}
