package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxChatTextLen mirrors the chats.text column limit.
	MaxChatTextLen = 250
	// MaxCategoryTextLen mirrors the categories.text column limit.
	MaxCategoryTextLen = 255
)

// Chat is a text item owned by exactly one regular user.
// Done is the completion flag, reported as "active" by the CLI.
type Chat struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"-"`
	Text       string     `db:"text" json:"text"`
	Done       bool       `db:"done" json:"done"`
	Owner      string     `db:"username" json:"-"`
	Categories []Category `json:"-"`
}

// CategoryList renders the attached category texts as a comma separated list.
func (c *Chat) CategoryList() string {
	texts := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		texts = append(texts, cat.Text)
	}
	return strings.Join(texts, ", ")
}

// StateLabel is the human readable completion state.
func (c *Chat) StateLabel() string {
	if c.Done {
		return "active"
	}
	return "not active"
}

func (c *Chat) String() string {
	return fmt.Sprintf("<Chat: %d | %s | %s | %s | categories %s>", c.ID, c.Owner, c.Text, c.StateLabel(), c.CategoryList())
}

// Category is a label created by a regular user and attachable to any chat.
type Category struct {
	ID     int64  `db:"id" json:"id"`
	UserID int64  `db:"user_id" json:"user_id"`
	Owner  string `db:"username" json:"user"`
	Text   string `db:"text" json:"text"`
}

func (c *Category) String() string {
	return fmt.Sprintf("<Category user: %s - %s>", c.Owner, c.Text)
}

// ChatCategory is the association row between a chat and a category.
// LastModified is refreshed by the database whenever the row is updated.
type ChatCategory struct {
	ID           int64     `db:"id" json:"id"`
	ChatID       int64     `db:"chat_id" json:"chat_id"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	LastModified time.Time `db:"last_modified" json:"last_modified"`
}

func (cc *ChatCategory) String() string {
	return fmt.Sprintf("<ChatCategory last modified %s>", cc.LastModified.Format("2006/01/02, 15:04:05"))
}
