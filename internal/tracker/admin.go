package tracker

import (
	"context"

	"chatTracker/models"
	"chatTracker/repository"
)

// AdminOps are the read-only cross-user views available to admins.
type AdminOps struct {
	svc  *Service
	user models.User
}

func (o *AdminOps) User() models.User { return o.user }

// Profile returns the admin record of the caller, including its admin id.
func (o *AdminOps) Profile(ctx context.Context) (*models.Admin, error) {
	return o.svc.users.GetAdmin(ctx, o.user.ID)
}

// SetUserActive activates or deactivates a regular user account.
func (o *AdminOps) SetUserActive(ctx context.Context, userID int64, active bool) (*models.User, error) {
	return o.svc.SetUserActive(ctx, userID, active)
}

// AllChats returns every chat with its owner and categories, ordered by id.
func (o *AdminOps) AllChats(ctx context.Context) ([]models.Chat, error) {
	return o.svc.AllChats(ctx)
}

// SearchChats filters chats by a substring of the owner username or chat id and
// by the done flag. Both filters apply together; the result is one page of 15.
func (o *AdminOps) SearchChats(ctx context.Context, query string, active repository.ActiveFilter, page int) (*repository.Page[models.Chat], error) {
	res, err := o.svc.chats.Search(ctx, repository.SearchParams{Query: query, Active: active, Page: page})
	if err != nil {
		return nil, err
	}
	if res.Items, err = o.svc.withCategories(ctx, res.Items); err != nil {
		return nil, err
	}
	return res, nil
}

// SearchUsers filters regular users by a substring of username, email or id and
// by the account active flag.
func (o *AdminOps) SearchUsers(ctx context.Context, query string, active repository.ActiveFilter, page int) (*repository.Page[models.User], error) {
	return o.svc.users.Search(ctx, repository.SearchParams{Query: query, Active: active, Page: page})
}
