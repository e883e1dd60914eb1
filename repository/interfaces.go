package repository

import (
	"context"
	"time"

	"chatTracker/models"
)

// UserRepositoryI defines operations on User entities and their specializations.
type UserRepositoryI interface {
	CreateRegular(ctx context.Context, u *models.RegularUser) (*models.RegularUser, error)
	CreateAdmin(ctx context.Context, a *models.Admin) (*models.Admin, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAdmin(ctx context.Context, id int64) (*models.Admin, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
	Search(ctx context.Context, p SearchParams) (*Page[models.User], error)
}

// ChatRepositoryI defines owner-scoped operations on Chat entities.
type ChatRepositoryI interface {
	Create(ctx context.Context, userID int64, text string) (*models.Chat, error)
	GetForUser(ctx context.Context, chatID, userID int64) (*models.Chat, error)
	UpdateText(ctx context.Context, chatID, userID int64, text string) (bool, error)
	Toggle(ctx context.Context, chatID, userID int64) (bool, error)
	Delete(ctx context.Context, chatID, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Chat, error)
	ListAll(ctx context.Context) ([]models.Chat, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CountDoneByUser(ctx context.Context, userID int64) (int, error)
	Search(ctx context.Context, p SearchParams) (*Page[models.Chat], error)
}

// CategoryRepositoryI defines operations on Category entities and the chat_category association.
type CategoryRepositoryI interface {
	Create(ctx context.Context, userID int64, text string) (*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	FindByText(ctx context.Context, text string) (*models.Category, error)
	Attach(ctx context.Context, chatID, categoryID int64) (bool, error)
	ListByChat(ctx context.Context, chatID int64) ([]models.Category, error)
	ListByChatIDs(ctx context.Context, chatIDs []int64) (map[int64][]models.Category, error)
	ListAssociations(ctx context.Context, chatID int64) ([]models.ChatCategory, error)
}

// TokenRepositoryI tracks revoked access tokens.
type TokenRepositoryI interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ UserRepositoryI     = (*UserRepository)(nil)
	_ ChatRepositoryI     = (*ChatRepository)(nil)
	_ CategoryRepositoryI = (*CategoryRepository)(nil)
	_ TokenRepositoryI    = (*TokenRepository)(nil)
)
