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

type EventHandler struct {
	svc      service.EventService
	userRepo repository.UserRepository
}

func NewEventHandler(svc service.EventService, userRepo repository.UserRepository) *EventHandler {
	return &EventHandler{svc: svc, userRepo: userRepo}
}

func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	manage := middleware.RequirePermission(h.userRepo, models.PermManageEvents)
	view := middleware.RequirePermission(h.userRepo, models.PermViewEvents)

	g.GET("/types", h.ListTypes)
	g.POST("", h.CreateEvent, manage)
	g.GET("", h.ListEvents, view)
	g.GET("/:id", h.GetEvent, view)
	g.PATCH("/:id", h.UpdateEvent, manage)
	g.DELETE("/:id", h.DeleteEvent, manage)
}

func (h *EventHandler) ListTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Types())
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEventType),
			errors.Is(err, service.ErrInvalidEventData),
			errors.Is(err, service.ErrInvalidTimeWindow):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context(), c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.EventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.ToEventResponse(&e)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	event, err := h.svc.UpdateEvent(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidEventData), errors.Is(err, service.ErrInvalidTimeWindow):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
