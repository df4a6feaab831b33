// internal/models/user.go
package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Address      *string   `json:"address,omitempty"`
	FamilySize   *int      `json:"family_size,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	RoleID       *int64    `json:"-"`
	RoleName     *string   `json:"role_name,omitempty"`
}

type RegistrationForm struct {
	Email       string `form:"email" validate:"required,email"`
	Phone       string `form:"phone" validate:"required,valid_phone"`
	Password    string `form:"password" validate:"required,min=8,complex_password"`
	ConfirmPass string `form:"confirm_password" validate:"required,eqfield=Password"`
	FullName    string `form:"full_name" validate:"required,alpha_space"`
	AgreeTerms  string `form:"agree_terms" validate:"required"`
	Honeypot    string `form:"website"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}
