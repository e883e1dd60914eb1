package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatTracker/internal/db"
	"chatTracker/models"
)

const categorySelect = `SELECT g.id, g.user_id, u.username, g.text FROM categories g JOIN users u ON u.id = g.user_id`

// CategoryRepository handles categories and the chat_category association.
type CategoryRepository struct {
	db db.DBTX
}

func NewCategoryRepository(d db.DBTX) *CategoryRepository {
	return &CategoryRepository{db: d}
}

// WithTx returns a copy of the repository bound to tx.
func (r *CategoryRepository) WithTx(tx *sql.Tx) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// Create inserts a category owned by userID.
func (r *CategoryRepository) Create(ctx context.Context, userID int64, text string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (user_id, text) VALUES (?, ?)`, userID, text)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("created category not found: id=%d", id)
	}
	return c, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCategory(r.db.QueryRowContext(ctx, categorySelect+` WHERE g.id = ?`, id))
}

// FindByText looks a category up by exact text across all users.
// When several users created the same text, the oldest category wins.
func (r *CategoryRepository) FindByText(ctx context.Context, text string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanCategory(r.db.QueryRowContext(ctx, categorySelect+` WHERE g.text = ? ORDER BY g.id ASC LIMIT 1`, text))
}

// Attach tags chatID with categoryID. It reports false when the pair already exists.
func (r *CategoryRepository) Attach(ctx context.Context, chatID, categoryID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO chat_category (chat_id, category_id) VALUES (?, ?)
        ON CONFLICT(chat_id, category_id) DO NOTHING`, chatID, categoryID)
	return affected(res, err)
}

// ListByChat returns the categories attached to chatID ordered by category id.
func (r *CategoryRepository) ListByChat(ctx context.Context, chatID int64) ([]models.Category, error) {
	byChat, err := r.ListByChatIDs(ctx, []int64{chatID})
	if err != nil {
		return nil, err
	}
	return byChat[chatID], nil
}

// ListByChatIDs loads the categories of several chats in one query.
func (r *CategoryRepository) ListByChatIDs(ctx context.Context, chatIDs []int64) (map[int64][]models.Category, error) {
	out := make(map[int64][]models.Category, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	placeholders := make([]string, len(chatIDs))
	args := make([]any, len(chatIDs))
	for i, id := range chatIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT cc.chat_id, g.id, g.user_id, u.username, g.text
FROM chat_category cc
JOIN categories g ON g.id = cc.category_id
JOIN users u ON u.id = g.user_id
WHERE cc.chat_id IN (`+strings.Join(placeholders, ",")+`)
ORDER BY cc.chat_id ASC, g.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var chatID int64
		var c models.Category
		if err := rows.Scan(&chatID, &c.ID, &c.UserID, &c.Owner, &c.Text); err != nil {
			return nil, err
		}
		out[chatID] = append(out[chatID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAssociations returns the raw association rows of chatID.
func (r *CategoryRepository) ListAssociations(ctx context.Context, chatID int64) ([]models.ChatCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, chat_id, category_id, last_modified FROM chat_category WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ChatCategory
	for rows.Next() {
		var cc models.ChatCategory
		if err := rows.Scan(&cc.ID, &cc.ChatID, &cc.CategoryID, &cc.LastModified); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Owner, &c.Text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
