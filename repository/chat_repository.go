package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatTracker/internal/db"
	"chatTracker/models"
)

const chatSelect = `SELECT c.id, c.user_id, c.text, c.done, u.username FROM chats c JOIN users u ON u.id = c.user_id`

// ChatRepository handles chats. Every mutation is scoped to the owning user.
type ChatRepository struct {
	db db.DBTX
}

func NewChatRepository(d db.DBTX) *ChatRepository {
	return &ChatRepository{db: d}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ChatRepository) WithTx(tx *sql.Tx) *ChatRepository {
	return &ChatRepository{db: tx}
}

// Create inserts a new chat owned by userID. Done defaults to false.
func (r *ChatRepository) Create(ctx context.Context, userID int64, text string) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO chats (user_id, text, done) VALUES (?, ?, 0)`, userID, text)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	c, err := r.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("created chat not found: id=%d", id)
	}
	return c, nil
}

// GetForUser fetches a chat by id only if it is owned by userID.
func (r *ChatRepository) GetForUser(ctx context.Context, chatID, userID int64) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c models.Chat
	err := r.db.QueryRowContext(ctx, chatSelect+` WHERE c.id = ? AND c.user_id = ?`, chatID, userID).
		Scan(&c.ID, &c.UserID, &c.Text, &c.Done, &c.Owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// UpdateText replaces the text of an owned chat. Returns false when no such chat exists.
func (r *ChatRepository) UpdateText(ctx context.Context, chatID, userID int64, text string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET text = ? WHERE id = ? AND user_id = ?`, text, chatID, userID)
	return affected(res, err)
}

// Toggle flips the completion flag of an owned chat.
func (r *ChatRepository) Toggle(ctx context.Context, chatID, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET done = NOT done WHERE id = ? AND user_id = ?`, chatID, userID)
	return affected(res, err)
}

// Delete removes an owned chat; its category associations cascade.
func (r *ChatRepository) Delete(ctx context.Context, chatID, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ? AND user_id = ?`, chatID, userID)
	return affected(res, err)
}

// ListByUser returns the chats of userID in insertion order.
func (r *ChatRepository) ListByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, chatSelect+` WHERE c.user_id = ? ORDER BY c.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChatRows(rows)
}

// ListAll returns every chat ordered by id.
func (r *ChatRepository) ListAll(ctx context.Context) ([]models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, chatSelect+` ORDER BY c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChatRows(rows)
}

func (r *ChatRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM chats WHERE user_id = ?`, userID)
}

// CountDoneByUser counts the owned chats whose completion flag is set.
func (r *ChatRepository) CountDoneByUser(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM chats WHERE user_id = ? AND done = 1`, userID)
}

func (r *ChatRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanChatRows is a helper to scan rows produced by chatSelect.
func scanChatRows(rows *sql.Rows) ([]models.Chat, error) {
	var out []models.Chat
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Text, &c.Done, &c.Owner); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
