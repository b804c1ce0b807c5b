package invoice

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/search"
	"github.com/clinicore/clinicore/pkg/pagination"
)

// Handler exposes the invoice API.
type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the invoice endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	billing := g.Group("/invoices", auth.RequireRole("admin", "staff", "billing"))
	billing.POST("", h.create)
	billing.GET("", h.search)
	billing.GET("/cancelled", h.listCancelled)
	billing.GET("/:id", h.get)
	billing.GET("/:id/audit", h.listAudit)
	billing.POST("/:id/claim/release", h.releaseClaim)
	billing.POST("/:id/claim/cancel", h.cancelClaim)
	billing.PATCH("/:id/reconcile", h.reconcile)
}

type errorResponse struct {
	Error string   `json:"error"`
	Items []string `json:"items,omitempty"`
}

// writeError maps domain errors onto HTTP responses.
func (h *Handler) writeError(c echo.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Items: ve.Items})
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, errorResponse{Error: ce.Error()})
	}
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "invoice not found"})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("invoice request failed")
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, NewValidationError("id must be a valid UUID")
	}
	return id, nil
}

func (h *Handler) create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	v, err := h.svc.Create(c.Request().Context(), req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) search(c echo.Context) error {
	params := search.ExtractParams(c)
	if status, ok := params["claim_status"]; ok && !validClaimStatuses[status] {
		return h.writeError(c, NewValidationError("claim_status must be Pending, Released or Cancelled"))
	}
	p := pagination.FromContext(c)
	views, total, err := h.svc.Search(c.Request().Context(), params, p.Limit, p.Offset)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, p))
}

func (h *Handler) listCancelled(c echo.Context) error {
	p := pagination.FromContext(c)
	views, total, err := h.svc.ListCancelled(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, p))
}

func (h *Handler) releaseClaim(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var req ReleaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	v, err := h.svc.ReleaseClaim(c.Request().Context(), id, req.Checklist, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) cancelClaim(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	v, err := h.svc.CancelClaim(c.Request().Context(), id, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) reconcile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	v, err := h.svc.ReconcileCancelled(c.Request().Context(), id, req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) listAudit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.writeError(c, err)
	}
	trail, err := h.svc.ListAudit(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": trail})
}
