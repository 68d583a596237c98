package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arunalla/relief-intake-api/internal/models"
)

const requestColumns = `id, reference_code, name, birth_year, district, nearest_town, phone, email,
       grade, exam_year, subjects, flood_impact, support_needed, status, verification_status,
       priority, admin_notes, created_at`

// RequestRepository persists support requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new support request row.
func (r *RequestRepository) Create(ctx context.Context, request *models.SupportRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO requests
	(id, reference_code, name, birth_year, district, nearest_town, phone, email, grade, exam_year,
	 subjects, flood_impact, support_needed, status, verification_status, priority, admin_notes, created_at)
	VALUES (:id, :reference_code, :name, :birth_year, :district, :nearest_town, :phone, :email, :grade, :exam_year,
	 :subjects, :flood_impact, :support_needed, :status, :verification_status, :priority, :admin_notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.SupportRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1`, requestColumns)
	var request models.SupportRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.SupportRequest, *models.Pagination, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Verification != "" {
		args = append(args, filter.Verification)
		conditions = append(conditions, fmt.Sprintf("verification_status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR reference_code ILIKE $%d OR phone ILIKE $%d)", idx, idx, idx))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM requests"+where, args...); err != nil {
		return nil, nil, fmt.Errorf("count requests: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}

	query := fmt.Sprintf("SELECT %s FROM requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		requestColumns, where, pageSize, (page-1)*pageSize)

	requests := make([]models.SupportRequest, 0)
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list requests: %w", err)
	}

	return requests, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// UpdateStatus sets the triage status of a request.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return r.updateField(ctx, id, "status", string(status))
}

// UpdateVerification sets the verification status of a request.
func (r *RequestRepository) UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) error {
	return r.updateField(ctx, id, "verification_status", string(status))
}

// UpdatePriority sets the priority of a request.
func (r *RequestRepository) UpdatePriority(ctx context.Context, id string, priority models.PriorityLevel) error {
	return r.updateField(ctx, id, "priority", string(priority))
}

// UpdateAdminNotes replaces the free-text staff notes.
func (r *RequestRepository) UpdateAdminNotes(ctx context.Context, id string, notes string) error {
	return r.updateField(ctx, id, "admin_notes", notes)
}

func (r *RequestRepository) updateField(ctx context.Context, id, column, value string) error {
	query := fmt.Sprintf("UPDATE requests SET %s = $1 WHERE id = $2", column)
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update request %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
