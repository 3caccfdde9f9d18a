package model

import (
	"time"

	"github.com/google/uuid"
)

// Task states.
const (
	StateTodo       = "TODO"
	StateInProgress = "IN_PROGRESS"
	StateDone       = "DONE"
)

// ValidTaskStates enumerates the states a task may be moved to.
var ValidTaskStates = map[string]struct{}{
	StateTodo:       {},
	StateInProgress: {},
	StateDone:       {},
}

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	Description string
	State       string `gorm:"not null;default:TODO"`
	Priority    string
	CreatorID   uuid.UUID  `gorm:"type:uuid;not null"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid"`
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Project  Project `gorm:"foreignKey:ProjectID"`
	Creator  User    `gorm:"foreignKey:CreatorID"`
	Assignee *User   `gorm:"foreignKey:AssigneeID"`
}
