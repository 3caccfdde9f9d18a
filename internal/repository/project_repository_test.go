package repository_test

import (
	"context"
	"testing"

	"pjm/internal/model"
	"pjm/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProjectRepository_Create_AddsCreatorAsAdministrator(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	projectID := uuid.New()
	creatorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(projectID.String()))
	mock.ExpectQuery(`INSERT INTO "project_members"`).
		WithArgs(projectID, creatorID, "ADMINISTRATEUR", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	project := &model.Project{Name: "Apollo", CreatorID: creatorID}
	err := repo.Create(context.Background(), project)

	assert.NoError(t, err)
	assert.Equal(t, projectID, project.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_FindByName_Missing(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "projects" WHERE name = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	project, err := repo.FindByName(context.Background(), "Apollo")

	assert.NoError(t, err)
	assert.Nil(t, project)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListForUser(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT "projects"\..* FROM "projects" JOIN project_members ON project_members.project_id = projects.id WHERE project_members.user_id = .*`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(uuid.NewString(), "Apollo").
			AddRow(uuid.NewString(), "Gemini"))

	projects, err := repo.ListForUser(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, projects, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Delete_Cascades(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE project_id = .*`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "project_members" WHERE project_id = .*`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "projects" WHERE id = .*`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), id)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Delete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "project_members"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "projects"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), id)

	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Update(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "projects" SET "name"=\$1,"description"=\$2,"due_date"=\$3,"updated_at"=\$4 WHERE "id" = \$5`).
		WithArgs("Apollo II", "Second flight", nil, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &model.Project{ID: id, Name: "Apollo II", Description: "Second flight", CreatorID: uuid.New()})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Update_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewProjectRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &model.Project{ID: uuid.New(), Name: "Ghost"})

	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
