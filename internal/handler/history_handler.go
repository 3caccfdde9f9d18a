package handler

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"pjm/internal/history"
	"pjm/internal/middleware"
	"pjm/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Query orders accepted by GetProjectHistory.
const (
	OrderRecent   = "recent"
	OrderPriority = "priority"
)

type HistoryHandler struct {
	history   HistoryLog
	tasks     TaskStore
	access    projectAccess
	logger    *slog.Logger
	keepAlive time.Duration
}

func NewHistoryHandler(log HistoryLog, tasks TaskStore, members MemberStore, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HistoryHandler{
		history:   log,
		tasks:     tasks,
		access:    projectAccess{members: members},
		logger:    logger,
		keepAlive: 30 * time.Second,
	}
}

// GetProjectHistory godoc
// @Summary      Task history of a project
// @Description  Events of the project's current tasks, newest first, or by priority then recency.
// @Tags         History
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        order query string false "recent (default) or priority"
// @Param        type query string false "Only events of this type: CREATION, STATE_CHANGE or PRIORITY_CHANGE"
// @Success      200 {array} history.Event
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/history [get]
func (h *HistoryHandler) GetProjectHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	order := c.DefaultQuery("order", OrderRecent)
	if order != OrderRecent && order != OrderPriority {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be recent or priority"})
		return
	}

	var only history.EventType
	if raw := c.Query("type"); raw != "" {
		if only, ok = history.ParseEventType(raw); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type"})
			return
		}
	}

	if !h.access.require(c, projectID, userID, permission.ViewHistory, "You don't have access to this project's history") {
		return
	}

	roster, err := h.tasks.TaskIDs(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	var events []history.Event
	if order == OrderPriority {
		events = h.history.ByPriority(projectID, roster)
	} else {
		events = h.history.ByProject(projectID, roster)
	}

	if only != "" {
		events = slices.DeleteFunc(events, func(e history.Event) bool { return e.Type != only })
	}

	c.JSON(http.StatusOK, events)
}

// Stream godoc
// @Summary      Live task events of a project
// @Description  Server-sent events, one "task-event" per appended history entry.
// @Tags         History
// @Security     BearerAuth
// @Produce      text/event-stream
// @Param        id path string true "Project ID"
// @Success      200 {object} history.Event
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/history/stream [get]
func (h *HistoryHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	if !h.access.require(c, projectID, userID, permission.BeNotified, "You are not notified about this project") {
		return
	}

	ctx := c.Request.Context()
	roster, err := h.taskSet(c, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	events, cancel := h.history.Subscribe()
	defer cancel()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	h.logger.Debug("history stream opened",
		slog.String("project_id", projectID.String()),
		slog.String("user_id", userID.String()))

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		case e, open := <-events:
			if !open {
				return false
			}
			if _, known := roster[e.TaskID]; !known {
				// Only a creation can add a task to the project after the
				// stream opened; anything else is another project's task.
				if e.Type != history.EventCreation {
					return true
				}
				fresh, err := h.taskSet(c, projectID)
				if err != nil {
					h.logger.Error("refresh task roster", slog.Any("error", err))
					return false
				}
				roster = fresh
				if _, known = roster[e.TaskID]; !known {
					return true
				}
			}
			c.SSEvent("task-event", e)
			return true
		}
	})
}

func (h *HistoryHandler) taskSet(c *gin.Context, projectID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	ids, err := h.tasks.TaskIDs(c.Request.Context(), projectID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Clear godoc
// @Summary      Clear the whole task history
// @Tags         History
// @Security     BearerAuth
// @Success      204
// @Failure      401,403 {object} map[string]string
// @Router       /history [delete]
func (h *HistoryHandler) Clear(c *gin.Context) {
	userID, _ := c.Get(middleware.UserIDKey)
	h.history.Clear()
	h.logger.Info("task history cleared", slog.Any("user_id", userID))
	c.Status(http.StatusNoContent)
}
