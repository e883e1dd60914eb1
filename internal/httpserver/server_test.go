package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatTracker/internal/testutil"
	"chatTracker/internal/tracker"
	"chatTracker/repository"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *tracker.Service) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t)
	svc := tracker.NewService(d)
	h := NewHandler(d, svc, repository.NewTokenRepository(d), testSecret, time.Hour)
	srv := httptest.NewServer(NewRouter(h, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := new(bytes.Buffer)
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func signup(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/signup", "", map[string]string{
		"username": username, "email": username + "@x.com", "password": "pw1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	res := decode[Result](t, body)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestUserIntegration_SignupLoginLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/signup", "", map[string]string{"username": "bob", "email": "bob@x.com", "password": "pw1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[Result](t, body)
	assert.Equal(t, "Account Created!", res.Message)
	assert.Equal(t, "/chats", res.Redirect)

	resp, body = do(t, srv, http.MethodPost, "/signup", "", map[string]string{"username": "bob", "email": "b2@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	res = decode[Result](t, body)
	assert.Equal(t, "Username or Email already exists!", res.Message)
	assert.Equal(t, "/signup", res.Redirect)

	resp, body = do(t, srv, http.MethodPost, "/login", "", map[string]string{"username": "bob", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid Username or Password", decode[Result](t, body).Message)

	resp, body = do(t, srv, http.MethodPost, "/login", "", map[string]string{"username": "bob", "password": "pw1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decode[Result](t, body)
	assert.Equal(t, "Logged In Successfully", res.Message)
	assert.Equal(t, "regular", res.Role)
	token := res.Token

	resp, _ = do(t, srv, http.MethodGet, "/api/chats", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged Out", decode[Result](t, body).Message)

	resp, _ = do(t, srv, http.MethodGet, "/api/chats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked token is rejected")
}

func TestLogin_FormAndCookie(t *testing.T) {
	srv, svc := newTestServer(t)
	_, err := svc.Signup(context.Background(), "bob", "bob@x.com", "pw1")
	require.NoError(t, err)

	resp, err := srv.Client().PostForm(srv.URL+"/login", url.Values{"username": {"bob"}, "password": {"pw1"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPages(t *testing.T) {
	srv, _ := newTestServer(t)
	for path, want := range map[string]string{"/": "action=\"/login\"", "/login": "action=\"/login\"", "/signup": "action=\"/signup\""} {
		resp, body := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
		assert.Contains(t, string(body), want, path)
	}

	resp, body := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, body)["status"])
}

func TestUserIntegration_ChatAPI(t *testing.T) {
	srv, _ := newTestServer(t)
	bob := signup(t, srv, "bob")
	eve := signup(t, srv, "eve")

	resp, body := do(t, srv, http.MethodPost, "/api/chats", bob, map[string]string{"text": "buy milk"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	first := decode[chatResponse](t, body)
	assert.False(t, first.Done)

	resp, _ = do(t, srv, http.MethodPost, "/api/chats", bob, map[string]string{"text": "call mom"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/chats", bob, map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	chatPath := fmt.Sprintf("/api/chats/%d", first.ID)

	resp, _ = do(t, srv, http.MethodPut, chatPath, eve, map[string]string{"text": "hijack"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPut, chatPath, bob, map[string]string{"text": "buy oat milk"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "buy oat milk", decode[chatResponse](t, body).Text)

	resp, body = do(t, srv, http.MethodPost, chatPath+"/toggle", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[chatResponse](t, body).Done)

	resp, _ = do(t, srv, http.MethodPost, chatPath+"/categories", bob, map[string]string{"text": "groceries"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body = do(t, srv, http.MethodPost, chatPath+"/categories", bob, map[string]string{"text": "groceries"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Category already added!", decode[map[string]any](t, body)["message"])
	resp, _ = do(t, srv, http.MethodPost, "/api/chats/999/categories", bob, map[string]string{"text": "groceries"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/chats", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chats := decode[[]chatResponse](t, body)
	require.Len(t, chats, 2)
	require.Len(t, chats[0].Categories, 1)
	assert.Equal(t, "groceries", chats[0].Categories[0].Text)

	resp, body = do(t, srv, http.MethodGet, "/api/stats", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[map[string]int](t, body)
	assert.Equal(t, 2, stats["num_chats"])
	assert.Equal(t, 1, stats["chats_sent"])

	resp, _ = do(t, srv, http.MethodDelete, chatPath, bob, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, chatPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, "/api/chats/abc", bob, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/admin/chats", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/api/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserIntegration_AdminAPI(t *testing.T) {
	srv, svc := newTestServer(t)
	bob := signup(t, srv, "bob")
	for i := 0; i < 17; i++ {
		resp, _ := do(t, srv, http.MethodPost, "/api/chats", bob, map[string]string{"text": fmt.Sprintf("chat %d", i)})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	_, err := svc.CreateAdmin(context.Background(), "root", "root@x.com", "rootpw", "ADM-1")
	require.NoError(t, err)

	resp, body := do(t, srv, http.MethodPost, "/login", "", map[string]string{"username": "root", "password": "rootpw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[Result](t, body)
	assert.Equal(t, "/admin", res.Redirect)
	admin := res.Token

	resp, _ = do(t, srv, http.MethodGet, "/api/chats", admin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "admins own no chats")

	resp, body = do(t, srv, http.MethodGet, "/api/admin/chats?q=bob&page=2", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	page := decode[repository.Page[chatResponse]](t, body)
	assert.Equal(t, 17, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "bob", page.Items[0].User)

	resp, body = do(t, srv, http.MethodGet, "/api/admin/chats?active=true", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[repository.Page[chatResponse]](t, body).Total)

	resp, _ = do(t, srv, http.MethodGet, "/api/admin/chats?active=sometimes", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/api/admin/chats?page=two", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/admin/users?q=BOB", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decode[repository.Page[userResponse]](t, body)
	require.Equal(t, 1, users.Total)
	assert.Equal(t, "bob", users.Items[0].Username)
	assert.True(t, users.Items[0].Active)
	assert.False(t, strings.Contains(string(body), "password"))
}

func TestUserIntegration_AdminDeactivatesUser(t *testing.T) {
	srv, svc := newTestServer(t)
	signup(t, srv, "bob")
	signup(t, srv, "eve")
	bob, err := svc.UserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(context.Background(), "root", "root@x.com", "rootpw", "ADM-1")
	require.NoError(t, err)
	resp, body := do(t, srv, http.MethodPost, "/login", "", map[string]string{"username": "root", "password": "rootpw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	admin := decode[Result](t, body).Token

	resp, body = do(t, srv, http.MethodGet, "/api/admin/me", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ADM-1", decode[map[string]any](t, body)["admin_id"])

	path := fmt.Sprintf("/api/admin/users/%d/active", bob.ID)
	resp, body = do(t, srv, http.MethodPut, path, admin, map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.False(t, decode[userResponse](t, body).Active)

	resp, body = do(t, srv, http.MethodGet, "/api/admin/users?active=false", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[repository.Page[userResponse]](t, body)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "bob", page.Items[0].Username)

	resp, _ = do(t, srv, http.MethodPut, path, admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPut, "/api/admin/users/9999/active", admin, map[string]bool{"active": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPut, "/api/admin/users/x/active", admin, map[string]bool{"active": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserIntegration_GetChatWithTags(t *testing.T) {
	srv, _ := newTestServer(t)
	bob := signup(t, srv, "bob")
	eve := signup(t, srv, "eve")

	resp, body := do(t, srv, http.MethodPost, "/api/chats", bob, map[string]string{"text": "standup"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[chatResponse](t, body)
	path := fmt.Sprintf("/api/chats/%d", c.ID)
	resp, _ = do(t, srv, http.MethodPost, path+"/categories", bob, map[string]string{"text": "work"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, path, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	detail := decode[chatDetailResponse](t, body)
	assert.Equal(t, "standup", detail.Text)
	require.Len(t, detail.Categories, 1)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, detail.Categories[0].ID, detail.Tags[0].CategoryID)

	resp, _ = do(t, srv, http.MethodGet, path, eve, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
