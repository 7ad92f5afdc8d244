package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tubehub/user-service/internal/api/metrics"
	"github.com/tubehub/user-service/internal/core/ports"
)

type ChannelHandler struct {
	channels ports.ChannelService
}

func NewChannelHandler(channels ports.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// Profile returns a channel with its subscriber counters.
//
// @Summary      Channel profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username"
// @Success      200       {object}  Response{data=domain.ChannelProfile}
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /users/c/{username} [get]
func (h *ChannelHandler) Profile(c echo.Context) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}

	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues("channel_profile"))
	profile, err := h.channels.ChannelProfile(c.Request().Context(), c.Param("username"), viewer.ID)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

// History returns the current user's watch history.
//
// @Summary      Watch history
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=[]domain.WatchedVideo}
// @Failure      401  {object}  api.ErrorResponse
// @Router       /users/history [get]
func (h *ChannelHandler) History(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	timer := prometheus.NewTimer(metrics.QueryDuration.WithLabelValues("watch_history"))
	history, err := h.channels.WatchHistory(c.Request().Context(), user.ID)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, history, "Watch history fetched successfully")
}
