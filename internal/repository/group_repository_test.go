package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

func TestGroupRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGroupRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO manager_groups")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	group := &models.ManagerGroup{Name: "Maths mentors"}
	require.NoError(t, repo.Create(context.Background(), group))
	require.NotEmpty(t, group.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
		AddRow(group.ID, "Maths mentors", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description")).
		WillReturnRows(rows)

	groups, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryAddMemberDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGroupRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO manager_group_members")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.AddMember(context.Background(), "grp-1", "mgr-1")
	require.ErrorIs(t, err, ErrDuplicateMember)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryRemoveMemberMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGroupRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM manager_group_members")).
		WithArgs("grp-1", "mgr-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveMember(context.Background(), "grp-1", "mgr-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
