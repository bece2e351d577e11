package handler

import (
	"context"
	"errors"
	"net/http"

	"conference-plugins/internal/ravem"
	"conference-plugins/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type RoomController interface {
	GetEndpointStatus(ctx context.Context, roomName string) (ravem.EndpointStatus, error)
	ConnectRoom(ctx context.Context, roomName, vcRoom string, force bool) error
	DisconnectRoom(ctx context.Context, roomName, vcRoom string, force bool) error
}

type RoomHandler struct {
	rooms RoomController
}

func NewRoomHandler(rooms RoomController) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

func (h *RoomHandler) Status(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("room is required", httpdto.CodeInvalidRequest))
		return
	}
	status, err := h.rooms.GetEndpointStatus(c.Request.Context(), room)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RoomStatusResponse{
		RoomName:  status.RoomName,
		Endpoint:  status.Endpoint,
		Connected: status.Connected,
		EventName: status.EventName,
	}))
}

func (h *RoomHandler) Connect(c *gin.Context) {
	var req httpdto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	if err := h.rooms.ConnectRoom(c.Request.Context(), req.Room, req.VCRoom, req.Force); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"connected": true}))
}

func (h *RoomHandler) Disconnect(c *gin.Context) {
	var req httpdto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	if err := h.rooms.DisconnectRoom(c.Request.Context(), req.Room, req.VCRoom, req.Force); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"connected": false}))
}

// fail reports business rejections as conflicts carrying the reason.
// Anything else goes through the error middleware.
func (h *RoomHandler) fail(c *gin.Context, err error) {
	var opErr *ravem.OperationError
	if errors.As(err, &opErr) {
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(opErr.Message, httpdto.ErrorCode(opErr.Reason)))
		return
	}
	_ = c.Error(err)
}
