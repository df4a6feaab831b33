// internal/db/roles_db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"samudaya.club/internal/models"
)

// CreateRoleIfNotExists creates a role unless one with the same name exists.
func CreateRoleIfNotExists(role *models.Role) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	existingRole, err := GetRoleByName(role.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing role '%s': %w", role.Name, err)
	}
	if existingRole != nil {
		slog.Debug("Role already exists, skipping creation", "role_name", role.Name, "role_id", existingRole.ID)
		return existingRole.ID, nil
	}

	query := `INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	res, err := DB.Exec(query, role.Name, role.Description, now, now)
	if err != nil {
		slog.Error("Failed to create role", "role_name", role.Name, "error", err)
		return 0, fmt.Errorf("failed to create role '%s': %w", role.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read created role id for '%s': %w", role.Name, err)
	}
	slog.Info("Role created", "role_id", id, "role_name", role.Name)
	return id, nil
}

// GetRoleByName returns the role with the given name, or (nil, nil).
func GetRoleByName(name string) (*models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE LOWER(name) = LOWER(?)`
	row := DB.QueryRow(query, strings.ToLower(name))
	return scanRole(row, fmt.Sprintf("name '%s'", name))
}

// GetRoleByID returns the role with the given id, or (nil, nil).
func GetRoleByID(id int64) (*models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ?`
	row := DB.QueryRow(query, id)
	return scanRole(row, fmt.Sprintf("id %d", id))
}

func scanRole(row scanner, what string) (*models.Role, error) {
	role := &models.Role{}
	var description sql.NullString
	err := row.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch role by %s: %w", what, err)
	}
	if description.Valid {
		role.Description = description.String
	}
	return role, nil
}

// GetAllRoles returns every role.
func GetAllRoles() ([]models.Role, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	query := `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name ASC`
	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		var description sql.NullString
		if err := rows.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			slog.Error("Failed to scan role row", "error", err)
			continue
		}
		if description.Valid {
			role.Description = description.String
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("role row iteration failed: %w", err)
	}
	return roles, nil
}
