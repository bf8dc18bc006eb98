package roles

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	q db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

const roleColumns = `id, name, is_built_in, permissions, created_at, updated_at`

// ListRoles returns all stored roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.q.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	return roles, nil
}

// InsertRole creates a new role row.
func (r *Repository) InsertRole(ctx context.Context, role Role) (Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, fmt.Errorf("roles: marshal permissions: %w", err)
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO roles (id, name, is_built_in, permissions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.IsBuiltIn, perms,
	)
	created, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: %s", ErrRoleDuplicate, role.Name)
		}
		return Role{}, err
	}
	return created, nil
}

// SaveRole updates name and permissions, inserting the row when a built-in
// role has never been persisted. The id column is never rewritten.
func (r *Repository) SaveRole(ctx context.Context, role Role) (Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, fmt.Errorf("roles: marshal permissions: %w", err)
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO roles (id, name, is_built_in, permissions)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, permissions = EXCLUDED.permissions, updated_at = NOW()
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.IsBuiltIn, perms,
	)
	saved, err := scanRole(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: %s", ErrRoleDuplicate, role.Name)
		}
		return Role{}, err
	}
	return saved, nil
}

// DeleteRole removes a custom role. Built-in rows are protected by the WHERE clause.
func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_built_in`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrRoleInUse
		}
		return fmt.Errorf("roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// CountAssignedUsers returns how many users hold the role.
func (r *Repository) CountAssignedUsers(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("roles: count users: %w", err)
	}
	return n, nil
}

// ListDefinitions returns the stored permission catalog in display order.
func (r *Repository) ListDefinitions(ctx context.Context) ([]permissions.Definition, error) {
	rows, err := r.q.Query(ctx, `SELECT key, label, scopes, description FROM permission_definitions ORDER BY position, key`)
	if err != nil {
		return nil, fmt.Errorf("roles: list definitions: %w", err)
	}
	defer rows.Close()
	var defs []permissions.Definition
	for rows.Next() {
		var (
			def    permissions.Definition
			scopes []byte
		)
		if err := rows.Scan(&def.Key, &def.Label, &scopes, &def.Description); err != nil {
			return nil, fmt.Errorf("roles: scan definition: %w", err)
		}
		if len(scopes) > 0 {
			if err := json.Unmarshal(scopes, &def.Scopes); err != nil {
				return nil, fmt.Errorf("roles: decode scopes for %s: %w", def.Key, err)
			}
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role  Role
		perms []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &role.IsBuiltIn, &perms, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	role.Permissions = permissions.Set{}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &role.Permissions); err != nil {
			return Role{}, fmt.Errorf("roles: decode permissions for %s: %w", role.ID, err)
		}
	}
	return role, nil
}
