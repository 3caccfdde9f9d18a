package handler

import (
	"errors"
	"net/http"
	"time"

	"pjm/internal/model"
	"pjm/internal/permission"
	"pjm/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects ProjectStore
	access   projectAccess
}

func NewProjectHandler(projects ProjectStore, members MemberStore) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		access:   projectAccess{members: members},
	}
}

type ProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
	CreatorID   string  `json:"creator_id"`
	CreatedAt   string  `json:"created_at"`
}

// PermissionsResponse is the caller's resolved capabilities in a project.
type PermissionsResponse struct {
	Role        string         `json:"role"`
	Permissions permission.Set `json:"permissions"`
	// Set only when a single capability was asked about.
	Capability string `json:"capability,omitempty"`
	Allowed    *bool  `json:"allowed,omitempty"`
}

func newProjectResponse(p *model.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatorID:   p.CreatorID.String(),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.DueDate != nil {
		due := p.DueDate.Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

// Create godoc
// @Summary      Create a project
// @Description  The creator becomes the project's administrator.
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body ProjectRequest true "Project"
// @Success      201 {object} ProjectResponse
// @Failure      400,401,409,500 {object} map[string]string
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	existing, err := h.projects.FindByName(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check project name"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Project already exists"})
		return
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatorID:   userID,
	}

	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, newProjectResponse(project))
}

// GetAll godoc
// @Summary      List the caller's projects
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} ProjectResponse
// @Router       /projects [get]
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = newProjectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a project
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} ProjectResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	// Access first, so outsiders cannot tell missing projects from hidden ones.
	if !h.access.require(c, projectID, userID, permission.ViewDashboard, "You don't have access to this project") {
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}

// Update godoc
// @Summary      Update a project
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body ProjectRequest true "Project"
// @Success      200 {object} ProjectResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.access.requireRole(c, projectID, userID, permission.RoleAdministrator, "Only a project administrator can edit the project") {
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project.Name = req.Name
	project.Description = req.Description
	project.DueDate = req.DueDate

	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}

// Delete godoc
// @Summary      Delete a project with its tasks and memberships
// @Tags         Projects
// @Security     BearerAuth
// @Param        id path string true "Project ID"
// @Success      200 {object} map[string]string
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	if !h.access.requireRole(c, projectID, userID, permission.RoleAdministrator, "Only a project administrator can delete the project") {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// Permissions godoc
// @Summary      Resolve the caller's permissions in a project
// @Tags         Permissions
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        capability query string false "Also answer whether this one capability is granted, e.g. canAssignTask"
// @Success      200 {object} PermissionsResponse
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/permissions [get]
func (h *ProjectHandler) Permissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var capability permission.Capability
	if name := c.Query("capability"); name != "" {
		if capability, ok = permission.ParseCapability(name); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown capability"})
			return
		}
	}

	label, isMember, err := h.access.role(c, projectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	response := PermissionsResponse{
		Role:        permission.ParseRole(label).String(),
		Permissions: permission.ByRole(label),
	}
	if capability != "" {
		allowed := permission.CanPerform(label, capability)
		response.Capability = string(capability)
		response.Allowed = &allowed
	}
	c.JSON(http.StatusOK, response)
}

// Roles godoc
// @Summary      Permission matrix of every project role
// @Tags         Permissions
// @Produce      json
// @Success      200 {array} PermissionsResponse
// @Router       /roles [get]
func Roles(c *gin.Context) {
	roles := permission.Roles()
	response := make([]PermissionsResponse, 0, len(roles))
	for _, r := range roles {
		response = append(response, PermissionsResponse{
			Role:        r.String(),
			Permissions: permission.ForRole(r),
		})
	}
	c.JSON(http.StatusOK, response)
}
