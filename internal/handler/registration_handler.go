package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/middleware"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/labstack/echo/v4"
)

type RegistrationHandler struct {
	svc      service.RegistrationService
	userRepo repository.UserRepository
}

func NewRegistrationHandler(svc service.RegistrationService, userRepo repository.UserRepository) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, userRepo: userRepo}
}

func (h *RegistrationHandler) RegisterRoutes(g *echo.Group) {
	manage := middleware.RequirePermission(h.userRepo, models.PermManageEvents)

	g.POST("", h.Register)
	g.GET("", h.List, manage)
	g.GET("/my", h.MyRegistrations)
	g.PATCH("/:id", h.AdminUpdate, manage)
	g.DELETE("/:id", h.Cancel)
	g.POST("/attendance", h.RecordAttendance, manage)
	g.GET("/attendance", h.ListAttendance, manage)
	g.GET("/stats/event/:event_id", h.Stats, manage)
}

func (h *RegistrationHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	reg, err := h.svc.Register(c.Request().Context(), user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyRegistered):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToRegistrationResponse(reg))
}

func (h *RegistrationHandler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Cancel(c.Request().Context(), id, middleware.CurrentUser(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotRegistrationOwner):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RegistrationHandler) AdminUpdate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reg, err := h.svc.AdminUpdate(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrRegistrationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToRegistrationResponse(reg))
}

func (h *RegistrationHandler) List(c echo.Context) error {
	filter := repository.RegistrationFilter{
		EventID: queryUint(c, "event_id"),
		UserID:  queryUint(c, "user_id"),
		Status:  models.RegistrationStatus(c.QueryParam("status")),
		Limit:   queryIntDefault(c, "limit", 50),
		Offset:  queryIntDefault(c, "offset", 0),
	}

	regs, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.RegistrationResponse, len(regs))
	for i, r := range regs {
		resp[i] = dto.ToRegistrationResponse(&r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RegistrationHandler) MyRegistrations(c echo.Context) error {
	user := middleware.CurrentUser(c)
	regs, err := h.svc.ListByUser(c.Request().Context(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.RegistrationResponse, len(regs))
	for i, r := range regs {
		resp[i] = dto.ToRegistrationResponse(&r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RegistrationHandler) RecordAttendance(c echo.Context) error {
	var req dto.RecordAttendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	record, err := h.svc.RecordAttendance(c.Request().Context(), req, middleware.CurrentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAttendanceRecorded):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, dto.ToAttendanceResponse(record))
}

func (h *RegistrationHandler) ListAttendance(c echo.Context) error {
	records, err := h.svc.ListAttendance(
		c.Request().Context(),
		queryUint(c, "event_id"),
		queryIntDefault(c, "limit", 50),
		queryIntDefault(c, "offset", 0),
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.AttendanceResponse, len(records))
	for i, r := range records {
		resp[i] = dto.ToAttendanceResponse(&r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RegistrationHandler) Stats(c echo.Context) error {
	eventID, err := parseID(c, "event_id")
	if err != nil {
		return err
	}

	stats, err := h.svc.Stats(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func queryUint(c echo.Context, name string) uint {
	v, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryIntDefault(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
