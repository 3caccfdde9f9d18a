package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pjm/internal/permission"
	"pjm/internal/repository"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	members MemberStore
	users   UserStore
	access  projectAccess
	logger  *slog.Logger
}

func NewMemberHandler(members MemberStore, users UserStore, logger *slog.Logger) *MemberHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemberHandler{
		members: members,
		users:   users,
		access:  projectAccess{members: members},
		logger:  logger,
	}
}

// AddMemberRequest invites an existing user into a project. An empty or
// unknown role falls back to MEMBRE.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type MemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// AddMember godoc
// @Summary      Add a member to a project or change their role
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body AddMemberRequest true "Member"
// @Success      200 {object} MemberResponse
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /projects/{id}/members [post]
func (h *MemberHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.access.require(c, projectID, userID, permission.AddMember, "You don't have permission to add members to this project") {
		return
	}

	target, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if target.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own role"})
		return
	}

	role := permission.ParseRole(req.Role)
	if !role.IsValid() {
		if req.Role != "" {
			h.logger.Warn("unknown project role, falling back to member",
				slog.String("project_id", projectID.String()),
				slog.String("role", req.Role))
		}
		role = permission.RoleMember
	}

	if err := h.members.AddMember(c.Request.Context(), projectID, target.ID, string(role)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	h.logger.Info("project member added",
		slog.String("project_id", projectID.String()),
		slog.String("user_id", target.ID.String()),
		slog.String("role", string(role)))

	c.JSON(http.StatusOK, MemberResponse{
		UserID: target.ID.String(),
		Email:  target.Email,
		Name:   target.Name,
		Role:   string(role),
	})
}

// GetMembers godoc
// @Summary      List project members
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} MemberResponse
// @Failure      400,403,500 {object} map[string]string
// @Router       /projects/{id}/members [get]
func (h *MemberHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	if !h.access.require(c, projectID, userID, permission.ViewDashboard, "You don't have access to this project") {
		return
	}

	members, err := h.members.GetMembers(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, len(members))
	for i, m := range members {
		response[i] = MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   m.Role,
		}
	}

	c.JSON(http.StatusOK, response)
}

// RemoveMember godoc
// @Summary      Remove a member from a project
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Project ID"
// @Param        user_id path string true "User ID"
// @Success      200 {object} map[string]string
// @Failure      400,403,404,500 {object} map[string]string
// @Router       /projects/{id}/members/{user_id} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, ok := pathUUID(c, "id", "project")
	if !ok {
		return
	}

	targetID, ok := pathUUID(c, "user_id", "user")
	if !ok {
		return
	}

	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot remove yourself from the project"})
		return
	}

	if !h.access.require(c, projectID, userID, permission.AddMember, "You don't have permission to remove members from this project") {
		return
	}

	if err := h.members.RemoveMember(c.Request.Context(), projectID, targetID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
