package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arunalla/relief-intake-api/internal/models"
)

// GroupRepository persists manager groups and their memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.ManagerGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	const query = `INSERT INTO manager_groups (id, name, description, created_at, updated_at)
	VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create manager group: %w", err)
	}
	return nil
}

// GetByID fetches a group by identifier.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.ManagerGroup, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM manager_groups WHERE id = $1`
	var group models.ManagerGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns all groups, newest first.
func (r *GroupRepository) List(ctx context.Context) ([]models.ManagerGroup, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM manager_groups ORDER BY created_at DESC`
	groups := make([]models.ManagerGroup, 0)
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list manager groups: %w", err)
	}
	return groups, nil
}

// Delete removes a group; memberships cascade in the schema.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM manager_groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete manager group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check group delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddMember joins a manager to a group. Duplicate memberships surface as
// a unique constraint violation.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, managerID string) error {
	const query = `INSERT INTO manager_group_members (group_id, manager_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, groupID, managerID, time.Now().UTC()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateMember
		}
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

// RemoveMember removes a manager from a group.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, managerID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM manager_group_members WHERE group_id = $1 AND manager_id = $2", groupID, managerID)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check member delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListMembers returns the manager profiles belonging to a group.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.Manager, error) {
	query := fmt.Sprintf(`SELECT %s FROM managers m
	JOIN manager_group_members gm ON gm.manager_id = m.id
	WHERE gm.group_id = $1
	ORDER BY m.full_name ASC`, prefixColumns(managerColumns, "m"))
	members := make([]models.Manager, 0)
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// MemberGroupIDs returns the group ids a manager belongs to.
func (r *GroupRepository) MemberGroupIDs(ctx context.Context, managerID string) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids,
		"SELECT group_id FROM manager_group_members WHERE manager_id = $1", managerID); err != nil {
		return nil, fmt.Errorf("list member group ids: %w", err)
	}
	return ids, nil
}

// ErrDuplicateMember marks an attempt to add the same manager twice.
var ErrDuplicateMember = errors.New("manager already in group")

func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
