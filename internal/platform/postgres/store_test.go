package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgresTaskStore_UpdateStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	task, err := domain.NewTask("write report", "")
	require.NoError(t, err)
	task.Version = 3

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)")).
		WithArgs(task.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = s.Update(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 3, task.Version, "version must not move on a failed write")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_UpdateMissingTask(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	task, err := domain.NewTask("write report", "")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = s.Update(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_UpdateRewritesJoinTables(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	task, err := domain.NewTask("write report", "")
	require.NoError(t, err)
	task.AddLabel("urgent")
	userID := uuid.New()
	task.AssignUser(userID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM task_labels WHERE task_id = $1")).
		WithArgs(task.ID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_labels")).
		WithArgs(task.ID, "urgent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM task_assignees WHERE task_id = $1")).
		WithArgs(task.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_assignees")).
		WithArgs(task.ID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Update(context.Background(), task))
	assert.Equal(t, 1, task.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks t")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_CreateMapsForeignKeyViolation(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, nil)

	task, err := domain.NewTask("write report", "")
	require.NoError(t, err)
	task.Column = &domain.ColumnRef{ID: uuid.New(), Name: "ghost"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_column_id_fkey"})

	err = s.Create(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresUserStore(db, nil)

	user, err := domain.NewUser("Alice", "alice@example.com", nil)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err = s.Create(context.Background(), user)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_GetByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresUserStore(db, nil)
	id := uuid.New()
	taskID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users\s+WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "wip_limit", "created_at", "updated_at"}).
			AddRow(id.String(), "Alice", "alice@example.com", int64(2), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT task_id FROM task_assignees WHERE user_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"task_id"}).AddRow(taskID.String()))

	user, err := s.GetByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.WipLimit)
	assert.Equal(t, 2, *user.WipLimit)
	assert.Equal(t, []uuid.UUID{taskID}, user.AssignedTaskIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHistoryStore_AppendAssignsSeq(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresHistoryStore(db, nil)

	column, err := domain.NewColumn("Todo", nil)
	require.NoError(t, err)
	record := domain.NewTaskColumnHistory(uuid.New(), column, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO task_column_history")).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	require.NoError(t, s.Append(context.Background(), record))
	assert.Equal(t, int64(42), record.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLabelIndex_AllLabels(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresLabelIndex(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT label")).
		WillReturnRows(sqlmock.NewRows([]string{"label"}).AddRow("backend").AddRow("urgent"))

	labels, err := s.AllLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "urgent"}, labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUnitOfWork(db, nil)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := uow.Within(context.Background(), func(ctx context.Context, s store.Stores) error {
		return s.Tasks.Delete(ctx, id)
	})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUnitOfWork(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectCommit()

	var n int
	err := uow.Within(context.Background(), func(ctx context.Context, s store.Stores) error {
		var err error
		n, err = s.Tasks.Count(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationFiles(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "00001_create_users.sql", files[0])
	for _, f := range files {
		assert.Regexp(t, `^\d{5}_[a-z_]+\.sql$`, f)
	}
}
