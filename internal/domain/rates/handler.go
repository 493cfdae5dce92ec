package rates

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/snfadmit/snfadmit/internal/platform/auth"
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
	readGroup.GET("/payers", h.ListPayers)
	readGroup.GET("/payers/:id", h.GetPayer)
	readGroup.GET("/rate-records", h.ListRates)
	readGroup.GET("/rate-records/active", h.GetActiveRate)
	readGroup.GET("/rate-records/:id", h.GetRate)
	readGroup.GET("/cost-models", h.ListCostModels)
	readGroup.GET("/cost-models/:id", h.GetCostModel)

	writeGroup := api.Group("", auth.RequireRole("admin", "finance"))
	writeGroup.POST("/payers", h.CreatePayer)
	writeGroup.PUT("/payers/:id", h.UpdatePayer)
	writeGroup.DELETE("/payers/:id", h.DeletePayer)
	writeGroup.POST("/rate-records", h.CreateRate)
	writeGroup.PUT("/rate-records/:id", h.UpdateRate)
	writeGroup.DELETE("/rate-records/:id", h.DeleteRate)
	writeGroup.POST("/cost-models", h.CreateCostModel)
	writeGroup.PUT("/cost-models/:id", h.UpdateCostModel)
	writeGroup.DELETE("/cost-models/:id", h.DeleteCostModel)
}

// -- Payer handlers --

func (h *Handler) CreatePayer(c echo.Context) error {
	var p Payer
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePayer(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPayer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPayer(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "payer not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPayers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPayers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePayer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Payer
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePayer(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePayer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePayer(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Rate record handlers --

func (h *Handler) CreateRate(c echo.Context) error {
	var rec RateRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateRate(c.Request().Context(), &rec); err != nil {
		if errors.Is(err, ErrOverlappingRates) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRate(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "rate record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

// GetActiveRate resolves the rate record covering a date for a facility and
// payer type. as_of defaults to today.
func (h *Handler) GetActiveRate(c echo.Context) error {
	facilityID, err := uuid.Parse(c.QueryParam("facility_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
	}
	payerType := c.QueryParam("payer_type")
	if !reimburse.ValidPayerType(payerType) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payer_type")
	}
	asOf := time.Now().UTC()
	if raw := c.QueryParam("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
	}
	rec, err := h.svc.ResolveActive(c.Request().Context(), facilityID, reimburse.PayerType(payerType), asOf)
	if err != nil {
		if errors.Is(err, ErrNoActiveRate) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, ErrAmbiguousRate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRates(c echo.Context) error {
	facilityID, err := uuid.Parse(c.QueryParam("facility_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRatesByFacility(c.Request().Context(), facilityID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var rec RateRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.ID = id
	if err := h.svc.UpdateRate(c.Request().Context(), &rec); err != nil {
		if errors.Is(err, ErrOverlappingRates) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteRate(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Cost model handlers --

func (h *Handler) CreateCostModel(c echo.Context) error {
	var m CostModelRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCostModel(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetCostModel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetCostModel(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "cost model not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListCostModels(c echo.Context) error {
	facilityID, err := uuid.Parse(c.QueryParam("facility_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCostModelsByFacility(c.Request().Context(), facilityID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateCostModel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m CostModelRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateCostModel(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteCostModel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCostModel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
