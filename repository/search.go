package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"chatTracker/models"
)

// PerPage is the fixed admin search page size.
const PerPage = 15

// MaxPage bounds requested page numbers so the offset cannot overflow.
const MaxPage = math.MaxInt32

var ErrInvalidActiveFilter = errors.New("active filter must be one of any, true, false")

// ActiveFilter restricts a search by an active/completion flag.
type ActiveFilter string

const (
	ActiveAny   ActiveFilter = "any"
	ActiveTrue  ActiveFilter = "true"
	ActiveFalse ActiveFilter = "false"
)

// ParseActiveFilter accepts any, true or false (case-insensitive). Empty means any.
func ParseActiveFilter(s string) (ActiveFilter, error) {
	switch f := ActiveFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ActiveAny, nil
	case ActiveAny, ActiveTrue, ActiveFalse:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidActiveFilter, s)
	}
}

// SearchParams represents the two-axis admin filter plus the requested page.
// Query and Active are ANDed when both are present.
type SearchParams struct {
	Query  string
	Active ActiveFilter
	Page   int
}

func (p SearchParams) normalized() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	if p.Active == "" {
		p.Active = ActiveAny
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Page is one page of an ordered result set.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func newPage[T any](items []T, total, page int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := (total + PerPage - 1) / PerPage
	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: PerPage,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// likePattern builds a case-insensitive substring pattern for use with ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

// Search returns chats whose owner username or id contains Query, filtered by the
// done flag when Active is not "any", ordered by id.
func (r *ChatRepository) Search(ctx context.Context, p SearchParams) (*Page[models.Chat], error) {
	p = p.normalized()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if p.Query != "" {
		like := likePattern(p.Query)
		where = append(where, `(LOWER(u.username) LIKE ? ESCAPE '\' OR CAST(c.id AS TEXT) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if p.Active != ActiveAny {
		where = append(where, "c.done = ?")
		args = append(args, p.Active == ActiveTrue)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats c JOIN users u ON u.id = c.user_id`+clause, args...).Scan(&total); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, chatSelect+clause+` ORDER BY c.id ASC LIMIT ? OFFSET ?`,
		append(args, PerPage, (p.Page-1)*PerPage)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanChatRows(rows)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, p.Page), nil
}

// Search returns regular users whose username, email or id contains Query, filtered
// by the account active flag when Active is not "any", ordered by id.
func (r *UserRepository) Search(ctx context.Context, p SearchParams) (*Page[models.User], error) {
	p = p.normalized()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where := []string{"role = 'regular'"}
	var args []any
	if p.Query != "" {
		like := likePattern(p.Query)
		where = append(where, `(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR CAST(id AS TEXT) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if p.Active != ActiveAny {
		where = append(where, "active = ?")
		args = append(args, p.Active == ActiveTrue)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+clause+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		append(args, PerPage, (p.Page-1)*PerPage)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanUserRows(rows)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, p.Page), nil
}
