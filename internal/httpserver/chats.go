package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chatTracker/internal/tracker"
	"chatTracker/models"
	"chatTracker/repository"
)

type chatResponse struct {
	ID         int64             `json:"id"`
	Text       string            `json:"text"`
	Done       bool              `json:"done"`
	User       string            `json:"user,omitempty"`
	Categories []models.Category `json:"categories"`
}

func toChatResponse(c models.Chat) chatResponse {
	cats := c.Categories
	if cats == nil {
		cats = []models.Category{}
	}
	return chatResponse{ID: c.ID, Text: c.Text, Done: c.Done, User: c.Owner, Categories: cats}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

type textRequest struct {
	Text string `json:"text"`
}

func readText(r *http.Request) (string, error) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", err
	}
	return req.Text, nil
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := regularOps(r).Chats(r.Context())
	if err != nil {
		h.internalError(w, r, err, "list chats")
		return
	}
	out := make([]chatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := regularOps(r).AddChat(r.Context(), text)
	if errors.Is(err, tracker.ErrInvalidText) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err, "add chat")
		return
	}
	writeJSON(w, http.StatusCreated, toChatResponse(*c))
}

type chatDetailResponse struct {
	chatResponse
	Tags []models.ChatCategory `json:"tags"`
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	ops := regularOps(r)
	c, err := ops.Chat(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err, "get chat")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	tags, err := ops.Tags(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err, "list chat tags")
		return
	}
	writeJSON(w, http.StatusOK, chatDetailResponse{chatResponse: toChatResponse(*c), Tags: tags})
}

func (h *Handler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	id, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	text, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := regularOps(r).UpdateChat(r.Context(), id, text)
	switch {
	case errors.Is(err, tracker.ErrInvalidText):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.internalError(w, r, err, "update chat")
	case c == nil:
		writeError(w, http.StatusNotFound, "Chat not found")
	default:
		writeJSON(w, http.StatusOK, toChatResponse(*c))
	}
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	deleted, err := regularOps(r).DeleteChat(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err, "delete chat")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	c, err := regularOps(r).ToggleChat(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err, "toggle chat")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(*c))
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := chatIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	text, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cat, added, err := regularOps(r).AddChatCategory(r.Context(), id, text)
	switch {
	case errors.Is(err, tracker.ErrInvalidText):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.internalError(w, r, err, "add category")
	case cat == nil:
		writeError(w, http.StatusNotFound, "Chat not found")
	case added:
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Category added!", "category": cat})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"message": "Category already added!", "category": cat})
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ops := regularOps(r)
	n, err := ops.NumChats(r.Context())
	if err != nil {
		h.internalError(w, r, err, "count chats")
		return
	}
	sent, err := ops.ChatsSent(r.Context())
	if err != nil {
		h.internalError(w, r, err, "count sent chats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"num_chats": n, "chats_sent": sent})
}

// searchParams reads q, active and page. A missing or non-positive page means page 1.
func searchParams(r *http.Request) (string, repository.ActiveFilter, int, error) {
	q := r.URL.Query()
	active, err := repository.ParseActiveFilter(q.Get("active"))
	if err != nil {
		return "", "", 0, err
	}
	page := 1
	if s := q.Get("page"); s != "" {
		if page, err = strconv.Atoi(s); err != nil {
			return "", "", 0, errors.New("page must be a number")
		}
	}
	return q.Get("q"), active, page, nil
}

func mapPage[T, U any](p *repository.Page[T], f func(T) U) *repository.Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, f(it))
	}
	return &repository.Page[U]{
		Items:   items,
		Total:   p.Total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.Pages,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

func (h *Handler) SearchChats(w http.ResponseWriter, r *http.Request) {
	q, active, page, err := searchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := adminOps(r).SearchChats(r.Context(), q, active, page)
	if err != nil {
		h.internalError(w, r, err, "search chats")
		return
	}
	writeJSON(w, http.StatusOK, mapPage(res, toChatResponse))
}

func (h *Handler) AdminProfile(w http.ResponseWriter, r *http.Request) {
	a, err := adminOps(r).Profile(r.Context())
	if err != nil {
		h.internalError(w, r, err, "load admin")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Admin not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"active\": true|false}")
		return
	}
	u, err := adminOps(r).SetUserActive(r.Context(), id, *req.Active)
	if err != nil {
		h.internalError(w, r, err, "set user active")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

func toUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Active: u.Active}
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q, active, page, err := searchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := adminOps(r).SearchUsers(r.Context(), q, active, page)
	if err != nil {
		h.internalError(w, r, err, "search users")
		return
	}
	writeJSON(w, http.StatusOK, mapPage(res, toUserResponse))
}
