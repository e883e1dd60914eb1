package tracker

import (
	"context"
	"database/sql"

	"chatTracker/internal/db"
	"chatTracker/models"
)

// RegularUserOps are the chat operations of one regular user. Every lookup and
// mutation is scoped to chats that user owns.
type RegularUserOps struct {
	svc  *Service
	user models.User
}

func (o *RegularUserOps) User() models.User { return o.user }

// AddChat stores a new chat with done=false.
func (o *RegularUserOps) AddChat(ctx context.Context, text string) (*models.Chat, error) {
	text, err := cleanText(text, models.MaxChatTextLen)
	if err != nil {
		return nil, err
	}
	var c *models.Chat
	err = db.WithTx(ctx, o.svc.db, func(tx *sql.Tx) error {
		c, err = o.svc.chats.WithTx(tx).Create(ctx, o.user.ID, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteChat reports whether an owned chat was removed. A missing chat is not an error.
func (o *RegularUserOps) DeleteChat(ctx context.Context, chatID int64) (bool, error) {
	var deleted bool
	err := db.WithTx(ctx, o.svc.db, func(tx *sql.Tx) error {
		var err error
		deleted, err = o.svc.chats.WithTx(tx).Delete(ctx, chatID, o.user.ID)
		return err
	})
	return deleted, err
}

// UpdateChat replaces the chat text and returns the updated chat, or nil if the
// user owns no such chat.
func (o *RegularUserOps) UpdateChat(ctx context.Context, chatID int64, text string) (*models.Chat, error) {
	text, err := cleanText(text, models.MaxChatTextLen)
	if err != nil {
		return nil, err
	}
	var c *models.Chat
	err = db.WithTx(ctx, o.svc.db, func(tx *sql.Tx) error {
		chats := o.svc.chats.WithTx(tx)
		ok, err := chats.UpdateText(ctx, chatID, o.user.ID, text)
		if err != nil || !ok {
			return err
		}
		c, err = chats.GetForUser(ctx, chatID, o.user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ToggleChat flips the done flag and returns the chat, or nil if the user owns no such chat.
func (o *RegularUserOps) ToggleChat(ctx context.Context, chatID int64) (*models.Chat, error) {
	var c *models.Chat
	err := db.WithTx(ctx, o.svc.db, func(tx *sql.Tx) error {
		chats := o.svc.chats.WithTx(tx)
		ok, err := chats.Toggle(ctx, chatID, o.user.ID)
		if err != nil || !ok {
			return err
		}
		c, err = chats.GetForUser(ctx, chatID, o.user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddChatCategory tags an owned chat with the category named text, creating the
// category when no user has one by that name yet. The bool reports whether a new
// association was made. If the chat is missing nothing is written.
func (o *RegularUserOps) AddChatCategory(ctx context.Context, chatID int64, text string) (*models.Category, bool, error) {
	text, err := cleanText(text, models.MaxCategoryTextLen)
	if err != nil {
		return nil, false, err
	}
	var (
		cat   *models.Category
		added bool
	)
	err = db.WithTx(ctx, o.svc.db, func(tx *sql.Tx) error {
		chat, err := o.svc.chats.WithTx(tx).GetForUser(ctx, chatID, o.user.ID)
		if err != nil || chat == nil {
			return err
		}
		categories := o.svc.categories.WithTx(tx)
		cat, err = categories.FindByText(ctx, text)
		if err != nil {
			return err
		}
		if cat == nil {
			if cat, err = categories.Create(ctx, o.user.ID, text); err != nil {
				return err
			}
		}
		added, err = categories.Attach(ctx, chat.ID, cat.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return cat, added, nil
}

// Chats returns the owned chats in insertion order with their categories.
func (o *RegularUserOps) Chats(ctx context.Context) ([]models.Chat, error) {
	chats, err := o.svc.chats.ListByUser(ctx, o.user.ID)
	if err != nil {
		return nil, err
	}
	return o.svc.withCategories(ctx, chats)
}

// Chat returns one owned chat with its categories, or nil.
func (o *RegularUserOps) Chat(ctx context.Context, chatID int64) (*models.Chat, error) {
	c, err := o.svc.chats.GetForUser(ctx, chatID, o.user.ID)
	if err != nil || c == nil {
		return nil, err
	}
	cats, err := o.svc.categories.ListByChat(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Categories = cats
	return c, nil
}

// Tags returns the association rows of an owned chat, oldest first, or nil when
// the user owns no such chat.
func (o *RegularUserOps) Tags(ctx context.Context, chatID int64) ([]models.ChatCategory, error) {
	c, err := o.svc.chats.GetForUser(ctx, chatID, o.user.ID)
	if err != nil || c == nil {
		return nil, err
	}
	tags, err := o.svc.categories.ListAssociations(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.ChatCategory{}
	}
	return tags, nil
}

func (o *RegularUserOps) NumChats(ctx context.Context) (int, error) {
	return o.svc.chats.CountByUser(ctx, o.user.ID)
}

// ChatsSent counts the owned chats marked done.
func (o *RegularUserOps) ChatsSent(ctx context.Context) (int, error) {
	return o.svc.chats.CountDoneByUser(ctx, o.user.ID)
}
