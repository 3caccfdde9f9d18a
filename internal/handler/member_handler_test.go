package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"pjm/internal/handler"
	"pjm/internal/model"
	"pjm/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memberFixture struct {
	router    *gin.Engine
	members   *MockMemberRepository
	users     *MockUserRepository
	userID    uuid.UUID
	projectID uuid.UUID
}

func setupMemberTest() *memberFixture {
	f := &memberFixture{
		members:   new(MockMemberRepository),
		users:     new(MockUserRepository),
		userID:    uuid.New(),
		projectID: uuid.New(),
	}
	h := handler.NewMemberHandler(f.members, f.users, nil)

	f.router = newRouter(authAs(f.userID, "MEMBRE"))
	f.router.POST("/projects/:id/members", h.AddMember)
	f.router.GET("/projects/:id/members", h.GetMembers)
	f.router.DELETE("/projects/:id/members/:user_id", h.RemoveMember)
	return f
}

func (f *memberFixture) path() string {
	return "/projects/" + f.projectID.String() + "/members"
}

func TestAddMember_UnknownRoleFallsBackToMember(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("ADMINISTRATEUR", nil)

	invitee := &model.User{ID: uuid.New(), Email: "bob@example.com", Name: "Bob"}
	f.users.On("FindByEmail", mock.Anything, "bob@example.com").Return(invitee, nil)
	f.members.On("AddMember", mock.Anything, f.projectID, invitee.ID, "MEMBRE").Return(nil)

	resp := doJSON(f.router, http.MethodPost, f.path(), handler.AddMemberRequest{Email: "Bob@example.com", Role: "CHEF"})

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.MemberResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "MEMBRE", body.Role)
	f.members.AssertExpectations(t)
}

func TestAddMember_CanonicalizesRole(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("ADMINISTRATEUR", nil)

	invitee := &model.User{ID: uuid.New(), Email: "eve@example.com"}
	f.users.On("FindByEmail", mock.Anything, "eve@example.com").Return(invitee, nil)
	f.members.On("AddMember", mock.Anything, f.projectID, invitee.ID, "OBSERVATEUR").Return(nil)

	resp := doJSON(f.router, http.MethodPost, f.path(), handler.AddMemberRequest{Email: "eve@example.com", Role: "observer"})

	assert.Equal(t, http.StatusOK, resp.Code)
	f.members.AssertExpectations(t)
}

func TestAddMember_MemberForbidden(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("MEMBRE", nil)

	resp := doJSON(f.router, http.MethodPost, f.path(), handler.AddMemberRequest{Email: "bob@example.com"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAddMember_CannotChangeOwnRole(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("ADMINISTRATEUR", nil)
	f.users.On("FindByEmail", mock.Anything, "me@example.com").Return(&model.User{ID: f.userID, Email: "me@example.com"}, nil)

	resp := doJSON(f.router, http.MethodPost, f.path(), handler.AddMemberRequest{Email: "me@example.com", Role: "OBSERVATEUR"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	f.members.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddMember_UserNotFound(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("ADMINISTRATEUR", nil)
	f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	resp := doJSON(f.router, http.MethodPost, f.path(), handler.AddMemberRequest{Email: "ghost@example.com"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetMembers(t *testing.T) {
	f := setupMemberTest()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("OBSERVATEUR", nil)
	f.members.On("GetMembers", mock.Anything, f.projectID).Return([]model.ProjectMember{
		{ProjectID: f.projectID, UserID: f.userID, Role: "OBSERVATEUR", User: model.User{Name: "Me"}},
	}, nil)

	resp := doJSON(f.router, http.MethodGet, f.path(), nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body []handler.MemberResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Me", body[0].Name)
}

func TestRemoveMember(t *testing.T) {
	f := setupMemberTest()
	target := uuid.New()
	f.members.On("GetUserRole", mock.Anything, f.projectID, f.userID).Return("ADMINISTRATEUR", nil)
	f.members.On("RemoveMember", mock.Anything, f.projectID, target).Return(repository.ErrMemberNotFound)

	resp := doJSON(f.router, http.MethodDelete, f.path()+"/"+target.String(), nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRemoveMember_Self(t *testing.T) {
	f := setupMemberTest()

	resp := doJSON(f.router, http.MethodDelete, f.path()+"/"+f.userID.String(), nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
