package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

func supportRequestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reference_code", "name", "birth_year", "district", "nearest_town", "phone", "email",
		"grade", "exam_year", "subjects", "flood_impact", "support_needed", "status",
		"verification_status", "priority", "admin_notes", "created_at",
	})
}

func TestRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.SupportRequest{
		ReferenceCode:      "FLD-2026-12345",
		Name:               "Nimal Perera",
		BirthYear:          "2009",
		District:           "Gampaha",
		Phone:              "0771234567",
		Grade:              "O/L (Ordinary Level)",
		ExamYear:           "2026",
		Subjects:           "Maths, Science",
		FloodImpact:        "Types: lost_materials\n\nDetails: lost all books",
		SupportNeeded:      []string{"past_papers", "stationery"},
		Status:             models.StatusNew,
		VerificationStatus: models.VerificationUnverified,
		Priority:           models.PriorityMedium,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)

	rows := supportRequestRows().
		AddRow(request.ID, "FLD-2026-12345", "Nimal Perera", "2009", "Gampaha", nil, "0771234567", nil,
			"O/L (Ordinary Level)", "2026", "Maths, Science", "Types: lost_materials",
			`{past_papers,stationery}`, "new", "unverified", "medium", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reference_code")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ReferenceCode, found.ReferenceCode)
	require.Equal(t, models.StatusNew, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM requests")).
		WithArgs("Galle", "new").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := supportRequestRows().
		AddRow("req-1", "FLD-2026-10001", "Kamala", "2010", "Galle", nil, "0719998888", nil,
			"Grade 9", "2027", "Maths", "flood damage", `{online_classes}`, "new", "unverified", "high", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reference_code")).
		WithArgs("Galle", "new").
		WillReturnRows(rows)

	list, pagination, err := repo.List(context.Background(), models.RequestFilter{
		District: "Galle",
		Status:   models.StatusNew,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.Equal(t, 1, pagination.TotalCount)
	require.Equal(t, 50, pagination.PageSize)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1 WHERE id = $2")).
		WithArgs("in_progress", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "req-1", models.StatusInProgress))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET priority = $1 WHERE id = $2")).
		WithArgs("high", "req-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePriority(context.Background(), "req-missing", models.PriorityHigh)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
