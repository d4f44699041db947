package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/bannerforge/internal/models"
)

const testProjectID = "6f1f7c1e-8d3a-4a55-9a51-4f3f0a2b9c10"

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &Postgres{DB: conn}, mock
}

func TestSaveProject_AssignsID(t *testing.T) {
	pg, mock := newMockPostgres(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	state := models.NewDefaultState("v1", "Summer", "f1")

	mock.ExpectQuery("INSERT INTO projects").
		WithArgs(sqlmock.AnyArg(), "Summer", sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	pr := &Project{State: state}
	require.NoError(t, pg.SaveProject(context.Background(), pr))
	assert.Len(t, pr.ID, 36)
	assert.Equal(t, "Summer", pr.Name)
	assert.Equal(t, now, pr.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProject_RejectsBadID(t *testing.T) {
	pg, mock := newMockPostgres(t)
	err := pg.SaveProject(context.Background(), &Project{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProject(t *testing.T) {
	pg, mock := newMockPostgres(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	state := models.NewDefaultState("v1", "Summer", "f1")
	doc, err := models.EncodeProject(state)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, name, document, created_at, updated_at FROM projects").
		WithArgs(testProjectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "document", "created_at", "updated_at"}).
			AddRow(testProjectID, "Summer", doc, now, now))

	pr, err := pg.GetProject(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, testProjectID, pr.ID)
	assert.Equal(t, state, pr.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProject_NotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectQuery("SELECT id, name, document").
		WithArgs(testProjectID).
		WillReturnError(sql.ErrNoRows)

	_, err := pg.GetProject(context.Background(), testProjectID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = pg.GetProject(context.Background(), "../etc")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects(t *testing.T) {
	pg, mock := newMockPostgres(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, sizes, frame_count, updated_at FROM projects").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sizes", "frame_count", "updated_at"}).
			AddRow(testProjectID, "Summer", []byte("{300x250,728x90}"), 3, now))

	list, err := pg.ListProjects(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"300x250", "728x90"}, list[0].Sizes)
	assert.Equal(t, 3, list[0].FrameCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProject(t *testing.T) {
	pg, mock := newMockPostgres(t)
	mock.ExpectExec("DELETE FROM projects").WithArgs(testProjectID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM projects").WithArgs(testProjectID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, pg.DeleteProject(context.Background(), testProjectID))
	assert.ErrorIs(t, pg.DeleteProject(context.Background(), testProjectID), models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
