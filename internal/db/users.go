// internal/db/users.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"samudaya.club/internal/models"

	"github.com/go-sql-driver/mysql"
)

var ErrEmailTaken = errors.New("a user with this email already exists")
var ErrPhoneTaken = errors.New("a user with this phone number already exists")

func CreateUser(user *models.User, defaultRoleName string) (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}

	defaultRole, err := GetRoleByName(defaultRoleName)
	if err != nil {
		return 0, fmt.Errorf("default role '%s' lookup failed: %w", defaultRoleName, err)
	}
	if defaultRole == nil {
		return 0, fmt.Errorf("default role '%s' not found", defaultRoleName)
	}

	query := `INSERT INTO users (email, phone, password_hash, full_name, address, family_size, role_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	res, err := DB.Exec(query,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.FullName,
		user.Address,
		user.FamilySize,
		defaultRole.ID,
		now,
		now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			if strings.Contains(strings.ToLower(mysqlErr.Message), "email") {
				return 0, ErrEmailTaken
			}
			if strings.Contains(strings.ToLower(mysqlErr.Message), "phone") {
				return 0, ErrPhoneTaken
			}
			return 0, fmt.Errorf("unique constraint violation: %w", err)
		}
		slog.Error("Failed to create user", "error", err, "email", user.Email)
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read created user id: %w", err)
	}

	slog.Info("User created", "user_id", id, "email", user.Email, "role_id", defaultRole.ID)
	return id, nil
}

func GetUserByEmail(email string) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	row := DB.QueryRow(getFullUserQuery()+" WHERE LOWER(u.email) = LOWER(?)", strings.ToLower(email))
	return scanFullUser(row)
}

func GetUserByID(id int64) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	row := DB.QueryRow(getFullUserQuery()+" WHERE u.id = ?", id)
	return scanFullUser(row)
}

func SetUserRole(userID int64, roleID int64) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	if _, err := GetRoleByID(roleID); err != nil {
		return fmt.Errorf("failed to check role ID %d: %w", roleID, err)
	}

	query := `UPDATE users SET role_id = ?, updated_at = ? WHERE id = ?`
	if _, err := DB.Exec(query, roleID, time.Now(), userID); err != nil {
		slog.Error("Failed to update user role", "userID", userID, "roleID", roleID, "error", err)
		return fmt.Errorf("failed to update user role: %w", err)
	}
	slog.Info("User role updated", "userID", userID, "new_role_id", roleID)
	return nil
}

func UpdateUserProfile(userID int64, fullName string, phone *string, address *string, familySize *int) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	query := `UPDATE users SET full_name = ?, phone = ?, address = ?, family_size = ?, updated_at = ? WHERE id = ?`
	if _, err := DB.Exec(query, fullName, phone, address, familySize, time.Now(), userID); err != nil {
		slog.Error("Failed to update user profile", "userID", userID, "error", err)
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func UpdateUserPassword(userID int64, newPasswordHash string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	if _, err := DB.Exec(query, newPasswordHash, time.Now(), userID); err != nil {
		slog.Error("Failed to update user password", "userID", userID, "error", err)
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func GetAllUsers(limit, offset int) ([]*models.User, int, error) {
	if DB == nil {
		return nil, 0, errors.New("database not initialized")
	}
	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := DB.Query(getFullUserQuery()+" ORDER BY u.created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanFullUser(rows)
		if err != nil {
			slog.Error("Failed to scan user row", "error", err)
			continue
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("user row iteration failed: %w", err)
	}
	return users, total, nil
}

// getFullUserQuery returns the SELECT with every user column, joined with
// the role name.
func getFullUserQuery() string {
	return `SELECT u.id, u.email, u.phone, u.password_hash, u.full_name, u.address, u.family_size,
                   u.created_at, u.updated_at, u.role_id, r.name AS role_name
            FROM users u
            LEFT JOIN roles r ON u.role_id = r.id`
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFullUser scans one row into models.User. A missing row is not an
// error: callers get (nil, nil).
func scanFullUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var phone, address, roleName sql.NullString
	var familySize, roleID sql.NullInt64

	err := row.Scan(
		&user.ID, &user.Email, &phone, &user.PasswordHash,
		&user.FullName, &address, &familySize,
		&user.CreatedAt, &user.UpdatedAt,
		&roleID, &roleName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	if phone.Valid {
		user.Phone = &phone.String
	}
	if address.Valid {
		user.Address = &address.String
	}
	if familySize.Valid {
		fs := int(familySize.Int64)
		user.FamilySize = &fs
	}
	if roleID.Valid {
		user.RoleID = &roleID.Int64
	}
	if roleName.Valid {
		user.RoleName = &roleName.String
	}
	return user, nil
}
