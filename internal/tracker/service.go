package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"chatTracker/internal/db"
	"chatTracker/models"
	"chatTracker/repository"
)

// Service is the entry point for account management. Chat operations are only
// reachable through the role views returned by AsRegular and AsAdmin.
type Service struct {
	db         *sql.DB
	users      *repository.UserRepository
	chats      *repository.ChatRepository
	categories *repository.CategoryRepository
}

func NewService(d *sql.DB) *Service {
	return &Service{
		db:         d,
		users:      repository.NewUserRepository(d),
		chats:      repository.NewChatRepository(d),
		categories: repository.NewCategoryRepository(d),
	}
}

// Signup registers a regular user. A duplicate username or email returns an
// error wrapping ErrConflict and leaves the existing account untouched.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*models.RegularUser, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidAccount
	}
	u, err := models.NewRegularUser(username, email, password)
	if err != nil {
		return nil, err
	}
	var created *models.RegularUser
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err = s.users.WithTx(tx).CreateRegular(ctx, u)
		return err
	})
	if err != nil {
		return nil, conflict(err)
	}
	return created, nil
}

// CreateAdmin registers an admin identified by the operator-assigned adminID.
func (s *Service) CreateAdmin(ctx context.Context, username, email, password, adminID string) (*models.Admin, error) {
	username, email, adminID = strings.TrimSpace(username), strings.TrimSpace(email), strings.TrimSpace(adminID)
	if username == "" || email == "" || password == "" || adminID == "" {
		return nil, ErrInvalidAccount
	}
	a, err := models.NewAdmin(username, email, password, adminID)
	if err != nil {
		return nil, err
	}
	var created *models.Admin
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err = s.users.WithTx(tx).CreateAdmin(ctx, a)
		return err
	})
	if err != nil {
		return nil, conflict(err)
	}
	return created, nil
}

func conflict(err error) error {
	if errors.Is(err, repository.ErrDuplicateUsername) ||
		errors.Is(err, repository.ErrDuplicateEmail) ||
		errors.Is(err, repository.ErrDuplicateAdminID) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// Authenticate returns the user matching username and password. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx, 1000, 0)
}

// UserByUsername returns nil, nil when no such user exists.
func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *Service) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetUserActive changes the active flag of a regular user and returns the
// updated user, or nil when id names no regular user.
func (s *Service) SetUserActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	var u *models.User
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		ok, err := users.SetActive(ctx, id, active)
		if err != nil || !ok {
			return err
		}
		u, err = users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// AllChats lists every chat for operator tooling. HTTP callers go through AdminOps.
func (s *Service) AllChats(ctx context.Context) ([]models.Chat, error) {
	chats, err := s.chats.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withCategories(ctx, chats)
}

// AsRegular returns the chat operations of u. It fails with ErrNotRegularUser for admins.
func (s *Service) AsRegular(u *models.User) (*RegularUserOps, error) {
	if !u.IsRegular() {
		return nil, ErrNotRegularUser
	}
	return &RegularUserOps{svc: s, user: *u}, nil
}

// AsAdmin returns the search operations available to u. It fails with ErrNotAdmin for regular users.
func (s *Service) AsAdmin(u *models.User) (*AdminOps, error) {
	if !u.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return &AdminOps{svc: s, user: *u}, nil
}

// withCategories fills Categories on every chat with a single query.
func (s *Service) withCategories(ctx context.Context, chats []models.Chat) ([]models.Chat, error) {
	if len(chats) == 0 {
		return chats, nil
	}
	ids := make([]int64, len(chats))
	for i := range chats {
		ids[i] = chats[i].ID
	}
	byChat, err := s.categories.ListByChatIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].Categories = byChat[chats[i].ID]
	}
	return chats, nil
}

// cleanText trims text and enforces 1..limit characters.
func cleanText(text string, limit int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > limit {
		return "", fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidText, limit)
	}
	return text, nil
}
