package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pjm/internal/history"
	"pjm/internal/model"
	"pjm/internal/permission"
	"pjm/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks   TaskStore
	history HistoryLog
	access  projectAccess
}

func NewTaskHandler(tasks TaskStore, members MemberStore, log HistoryLog) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		history: log,
		access:  projectAccess{members: members},
	}
}

// TaskRequest creates a task. State defaults to TODO.
type TaskRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	State       string     `json:"state"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// TaskUpdateRequest changes only the fields that are present.
type TaskUpdateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	State       *string    `json:"state"`
	Priority    *string    `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// TaskAssignRequest assigns a project member; an empty user_id unassigns.
type TaskAssignRequest struct {
	UserID string `json:"user_id"`
}

type TaskResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	State       string  `json:"state"`
	Priority    string  `json:"priority,omitempty"`
	CreatedBy   string  `json:"created_by"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

func newTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		ProjectID:   t.ProjectID.String(),
		Name:        t.Name,
		Description: t.Description,
		State:       t.State,
		Priority:    t.Priority,
		CreatedBy:   t.CreatorID.String(),
	}
	if t.AssigneeID != nil {
		id := t.AssigneeID.String()
		resp.AssignedTo = &id
	}
	resp.StartDate = formatDate(t.StartDate)
	resp.EndDate = formatDate(t.EndDate)
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// normalizeState upper-cases s and reports whether it is a task state.
func normalizeState(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	_, ok := model.ValidTaskStates[s]
	return s, ok
}

// normalizePriority upper-cases p; empty is allowed, unknown labels are not.
func normalizePriority(p string) (string, bool) {
	p = strings.ToUpper(strings.TrimSpace(p))
	if p == "" {
		return "", true
	}
	return p, history.KnownPriority(p)
}

// Create godoc
// @Summary      Create a task
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body TaskRequest true "Task"
// @Success      201 {object} TaskResponse
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	state := model.StateTodo
	if req.State != "" {
		if state, ok = normalizeState(req.State); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task state"})
			return
		}
	}

	priority, ok := normalizePriority(req.Priority)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task priority"})
		return
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return
	}

	if !h.access.require(c, projectID, userID, permission.CreateTask, "You don't have permission to create tasks in this project") {
		return
	}

	task := &model.Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		State:       state,
		Priority:    priority,
		CreatorID:   userID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.history.Append(history.Event{
		ID:       uuid.NewString(),
		TaskID:   task.ID,
		TaskName: task.Name,
		Type:     history.EventCreation,
		NewValue: task.State,
		Priority: task.Priority,
	})

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

// GetByProject godoc
// @Summary      List the tasks of a project
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} TaskResponse
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/tasks [get]
func (h *TaskHandler) GetByProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	if !h.access.require(c, projectID, userID, permission.ViewTask, "You don't have access to this project") {
		return
	}

	tasks, err := h.tasks.GetByProjectID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newTaskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, response)
}

// loadTask fetches the task named by the :id path parameter and checks the
// caller holds capability in its project. On failure the response is
// already written.
func (h *TaskHandler) loadTask(c *gin.Context, capability permission.Capability, denied string) (*model.Task, uuid.UUID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, uuid.Nil, false
	}

	taskID, ok := pathUUID(c, "id", "task")
	if !ok {
		return nil, uuid.Nil, false
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return nil, uuid.Nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return nil, uuid.Nil, false
	}

	if !h.access.require(c, task.ProjectID, userID, capability, denied) {
		return nil, uuid.Nil, false
	}
	return task, userID, true
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, _, ok := h.loadTask(c, permission.ViewTask, "You don't have access to this task")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Update godoc
// @Summary      Update a task
// @Description  State and priority changes are recorded in the task history.
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskUpdateRequest true "Changed fields"
// @Success      200 {object} TaskResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var (
		newState, newPriority string
		ok                    bool
	)
	if req.State != nil {
		if newState, ok = normalizeState(*req.State); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task state"})
			return
		}
	}
	if req.Priority != nil {
		if newPriority, ok = normalizePriority(*req.Priority); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task priority"})
			return
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task name cannot be empty"})
		return
	}

	task, _, ok := h.loadTask(c, permission.UpdateTask, "You don't have permission to update this task")
	if !ok {
		return
	}

	oldState, oldPriority := task.State, task.Priority

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.State != nil {
		task.State = newState
	}
	if req.Priority != nil {
		task.Priority = newPriority
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		task.EndDate = req.EndDate
	}

	if task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return
	}

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if task.State != oldState {
		h.history.Append(history.Event{
			ID:       uuid.NewString(),
			TaskID:   task.ID,
			TaskName: task.Name,
			Type:     history.EventStateChange,
			OldValue: oldState,
			NewValue: task.State,
			Priority: task.Priority,
		})
	}
	if task.Priority != oldPriority {
		h.history.Append(history.Event{
			ID:       uuid.NewString(),
			TaskID:   task.ID,
			TaskName: task.Name,
			Type:     history.EventPriorityChange,
			OldValue: oldPriority,
			NewValue: task.Priority,
			Priority: task.Priority,
		})
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Assign godoc
// @Summary      Assign a task to a project member
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskAssignRequest true "Assignee"
// @Success      200 {object} TaskResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /tasks/{id}/assign [post]
func (h *TaskHandler) Assign(c *gin.Context) {
	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var assignee *uuid.UUID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}
		assignee = &id
	}

	task, _, ok := h.loadTask(c, permission.AssignTask, "You don't have permission to assign tasks in this project")
	if !ok {
		return
	}

	if assignee != nil {
		_, isMember, err := h.access.role(c, task.ProjectID, *assignee)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
			return
		}
		if !isMember {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
			return
		}
	}

	if err := h.tasks.Assign(c.Request.Context(), task.ID, assignee); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign task"})
		return
	}

	task.AssigneeID = assignee
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} map[string]string
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	task, _, ok := h.loadTask(c, permission.UpdateTask, "You don't have permission to delete this task")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
