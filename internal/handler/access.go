package handler

import (
	"net/http"

	"pjm/internal/middleware"
	"pjm/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID reads the id stored by the auth middleware. On failure the
// response is already written.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a uuid path parameter, answering 400 when it is malformed.
func pathUUID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// projectAccess resolves the caller's role in a project into capabilities.
type projectAccess struct {
	members MemberStore
}

// role returns the caller's role label and whether they are a member at all.
// Members with a label we do not recognize still count as members and get the
// restrictive default set.
func (a projectAccess) role(c *gin.Context, projectID, userID uuid.UUID) (string, bool, error) {
	label, err := a.members.GetUserRole(c.Request.Context(), projectID, userID)
	if err != nil {
		return "", false, err
	}
	return label, label != "", nil
}

// require answers 403 unless the caller is a member whose role grants
// capability. On failure the response is already written.
func (a projectAccess) require(c *gin.Context, projectID, userID uuid.UUID, capability permission.Capability, denied string) bool {
	label, isMember, err := a.role(c, projectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}

	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return false
	}

	if !permission.CanPerform(label, capability) {
		c.JSON(http.StatusForbidden, gin.H{"error": denied})
		return false
	}
	return true
}

// requireRole answers 403 unless the caller holds exactly role in the project.
func (a projectAccess) requireRole(c *gin.Context, projectID, userID uuid.UUID, role permission.Role, denied string) bool {
	label, isMember, err := a.role(c, projectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}

	if !isMember || permission.ParseRole(label) != role {
		c.JSON(http.StatusForbidden, gin.H{"error": denied})
		return false
	}
	return true
}
