package handler

import (
	"errors"
	"net/http"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/middleware"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups", h.MyGroups)
	g.GET("/groups/:id", h.GetGroup)
	g.PUT("/groups/:id", h.UpdateGroup)
	g.DELETE("/groups/:id", h.DeleteGroup)

	g.POST("/groups/:id/members", h.AddMember)
	g.DELETE("/groups/:id/members/:user_id", h.RemoveMember)

	g.POST("/groups/:id/messages", h.SendMessage)
	g.GET("/groups/:id/messages", h.ListMessages)

	g.GET("/search/groups", h.SearchGroups)
	g.POST("/groups/:id/join", h.JoinGroup)

	g.POST("/admin/groups", h.CreateManagedGroup)
	g.POST("/admin/groups/:id/members", h.AssignMember)
	g.DELETE("/admin/groups/:id/members/:user_id", h.UnassignMember)
}

func chatError(err error) error {
	switch {
	case errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotGroupMember),
		errors.Is(err, service.ErrNotGroupAdmin),
		errors.Is(err, service.ErrNotGroupCreator),
		errors.Is(err, service.ErrNotUserCreated),
		errors.Is(err, service.ErrNotManagedGroup),
		errors.Is(err, service.ErrPrivateGroup),
		errors.Is(err, service.ErrManagerProtected),
		errors.Is(err, service.ErrManagedGroupsOnly),
		errors.Is(err, service.ErrAdminManagedOnly):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyMember):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *ChatHandler) CreateGroup(c echo.Context) error {
	var req dto.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group, err := h.svc.CreateGroup(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToGroupResponse(group))
}

func (h *ChatHandler) CreateManagedGroup(c echo.Context) error {
	var req dto.CreateManagedGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group, err := h.svc.CreateManagedGroup(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToGroupResponse(group))
}

func (h *ChatHandler) MyGroups(c echo.Context) error {
	groups, err := h.svc.MyGroups(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return chatError(err)
	}

	resp := make([]dto.GroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = dto.ToGroupResponse(&g)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) GetGroup(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	group, err := h.svc.GetGroup(c.Request().Context(), id, middleware.CurrentUser(c).ID)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, dto.ToGroupResponse(group))
}

func (h *ChatHandler) UpdateGroup(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	group, err := h.svc.UpdateGroup(c.Request().Context(), id, middleware.CurrentUser(c), req)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, dto.ToGroupResponse(group))
}

func (h *ChatHandler) DeleteGroup(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteGroup(c.Request().Context(), id, middleware.CurrentUser(c)); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) AddMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.AddMember(c.Request().Context(), id, middleware.CurrentUser(c), req); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *ChatHandler) RemoveMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	if err := h.svc.RemoveMember(c.Request().Context(), id, userID, middleware.CurrentUser(c)); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) AssignMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.AssignMember(c.Request().Context(), id, middleware.CurrentUser(c), req); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *ChatHandler) UnassignMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	if err := h.svc.UnassignMember(c.Request().Context(), id, userID, middleware.CurrentUser(c)); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	message, err := h.svc.SendMessage(
		c.Request().Context(),
		id,
		middleware.CurrentUser(c).ID,
		req.Content,
		models.MessageType(req.MessageType),
	)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToMessageResponse(message))
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	messages, err := h.svc.ListMessages(
		c.Request().Context(),
		id,
		middleware.CurrentUser(c).ID,
		queryIntDefault(c, "limit", 50),
		queryIntDefault(c, "offset", 0),
	)
	if err != nil {
		return chatError(err)
	}

	resp := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = dto.ToMessageResponse(&m)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) SearchGroups(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	groups, err := h.svc.SearchPublicGroups(c.Request().Context(), middleware.CurrentUser(c), query)
	if err != nil {
		return chatError(err)
	}

	resp := make([]dto.GroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = dto.ToGroupResponse(&g)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) JoinGroup(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.JoinPublicGroup(c.Request().Context(), id, middleware.CurrentUser(c)); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusCreated)
}
