package handler

import (
	"context"

	"pjm/internal/history"
	"pjm/internal/model"

	"github.com/google/uuid"
)

// The handlers depend on these narrow views of the repositories so tests can
// substitute mocks.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetConnected(ctx context.Context, id uuid.UUID, connected bool) error
}

type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	FindByName(ctx context.Context, name string) (*model.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberStore interface {
	AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	GetMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error)
	GetUserRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	TaskIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Assign(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID) error
}

// HistoryLog is satisfied by *history.Log.
type HistoryLog interface {
	Append(e history.Event) history.Event
	ByProject(projectID uuid.UUID, taskIDs []uuid.UUID) []history.Event
	ByPriority(projectID uuid.UUID, taskIDs []uuid.UUID) []history.Event
	Clear()
	Subscribe() (<-chan history.Event, func())
}
