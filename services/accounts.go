package services

import (
	"context"
	"errors"
	"strings"

	"research-review-api/models"
	"research-review-api/utils"
)

// NewAccount is the input of RegisterUser.
type NewAccount struct {
	Email     string
	Password  string
	Role      models.Role
	FirstName string
	LastName  string
}

// RegisterUser validates the account, hashes its password and stores it.
func RegisterUser(ctx context.Context, users UserStore, in NewAccount) (*models.User, error) {
	email := strings.ToLower(utils.SanitizeInput(in.Email))
	if !utils.ValidateEmail(email) {
		return nil, &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	if ok, msg := utils.ValidatePassword(in.Password); !ok {
		return nil, &ValidationError{Field: "password", Message: msg}
	}
	if !in.Role.Valid() {
		return nil, &ValidationError{Field: "role", Message: "must be one of student, faculty, staff, admin"}
	}

	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return nil, &ValidationError{Field: "email", Message: "already registered"}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, persistenceErr("load user", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, &PersistenceError{Op: "hash password", Cause: err}
	}
	user := &models.User{
		UserFname: utils.SanitizeInput(in.FirstName),
		UserLname: utils.SanitizeInput(in.LastName),
		Email:     email,
		Password:  hash,
		Role:      in.Role,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			return nil, err
		}
		return nil, persistenceErr("create user", err)
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one is registered.
// created is false when the email already exists.
func EnsureAdmin(ctx context.Context, users UserStore, email, password string) (created bool, err error) {
	_, err = users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, persistenceErr("load user", err)
	}
	if _, err := RegisterUser(ctx, users, NewAccount{
		Email:     email,
		Password:  password,
		Role:      models.RoleAdmin,
		FirstName: "System",
		LastName:  "Administrator",
	}); err != nil {
		return false, err
	}
	return true, nil
}
