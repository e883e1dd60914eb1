package models

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Role discriminates the specializations stored in the `users` table.
type Role string

const (
	RoleRegular Role = "regular"
	RoleAdmin   Role = "admin"
)

// User represents the identity shared by regular users and admins.
// It maps to the `users` table in SQLite.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"-"`
	Active       bool   `db:"active" json:"-"`
}

// NewUser builds a user with a hashed password. Role must be set by the caller
// or by one of the NewRegularUser / NewAdmin constructors.
func NewUser(username, email, password string) (*User, error) {
	u := &User{Username: username, Email: email, Active: true}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the stored hash with a fresh salted bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsAdmin() bool   { return u != nil && u.Role == RoleAdmin }
func (u *User) IsRegular() bool { return u != nil && u.Role == RoleRegular }

func (u *User) String() string {
	return fmt.Sprintf("<User %s - %s>", u.Username, u.Email)
}

// RegularUser is an end user that owns chats.
type RegularUser struct {
	User
}

// NewRegularUser creates a regular user model with Role preset to "regular".
func NewRegularUser(username, email, password string) (*RegularUser, error) {
	u, err := NewUser(username, email, password)
	if err != nil {
		return nil, err
	}
	u.Role = RoleRegular
	return &RegularUser{User: *u}, nil
}

func (u *RegularUser) String() string {
	return fmt.Sprintf("<RegularUser %d : %s - %s>", u.ID, u.Username, u.Email)
}
