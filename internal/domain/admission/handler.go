package admission

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/snfadmit/snfadmit/internal/domain/rates"
	"github.com/snfadmit/snfadmit/internal/platform/auth"
	"github.com/snfadmit/snfadmit/internal/platform/middleware"
	"github.com/snfadmit/snfadmit/internal/reimburse"
	"github.com/snfadmit/snfadmit/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "intake", "finance"))
	readGroup.GET("/admissions", h.List)
	readGroup.GET("/admissions/:id", h.Get)
	readGroup.GET("/admissions/:id/evaluations", h.History)

	writeGroup := api.Group("", auth.RequireRole("admin", "intake"))
	writeGroup.POST("/admissions/evaluate", h.Evaluate)
	writeGroup.POST("/admissions/:id/recalculate", h.Recalculate)
	writeGroup.POST("/admissions/:id/decision", h.Decide)
}

// pipelineError translates pipeline failures: configuration-integrity
// problems are conflicts the administrator must fix, everything else is an
// unprocessable request.
func pipelineError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	case errors.Is(err, rates.ErrNoActiveRate), errors.Is(err, rates.ErrAmbiguousRate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, reimburse.ErrInvalidLOS):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
}

func (h *Handler) Evaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Notes = middleware.SanitizeString(req.Notes)
	a, err := h.svc.Evaluate(c.Request().Context(), &req)
	if err != nil {
		return pipelineError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	facilityID := uuid.Nil
	if raw := c.QueryParam("facility_id"); raw != "" {
		var err error
		facilityID, err = uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
		}
	}
	items, total, err := h.svc.List(c.Request().Context(), facilityID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Recalculate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req RecalculateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Recalculate(c.Request().Context(), id, &req)
	if err != nil {
		return pipelineError(err)
	}
	return c.JSON(http.StatusOK, e)
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (h *Handler) Decide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	decidedBy := auth.UserIDFromContext(c.Request().Context())
	a, err := h.svc.Decide(c.Request().Context(), id, Status(req.Decision), decidedBy, middleware.SanitizeString(req.Note))
	if err != nil {
		if errors.Is(err, ErrAlreadyDecided) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}
	return c.JSON(http.StatusOK, items)
}
