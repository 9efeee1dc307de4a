package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/PabloPavan/bookshelf_api/internal/auth"
	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/db"
	"github.com/PabloPavan/bookshelf_api/internal/httpapi"
	"github.com/PabloPavan/bookshelf_api/internal/session"
	"github.com/PabloPavan/bookshelf_api/internal/users"
	"github.com/PabloPavan/bookshelf_api/internal/wishlist"
)

const cookieName = "bookshelf_session"

type testEnv struct {
	baseURL string
	server  *httptest.Server
	db      *db.DB
	users   *users.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("db migrate: %v", err)
	}

	base := db.NewBase(pool.Pool, 3*time.Second)
	usrRepo := users.NewRepository(base)
	bookRepo := books.NewRepository(base)
	wishRepo := wishlist.NewRepository(base)

	sessionManager := &session.Manager{
		Store:   session.NewMemoryStore(),
		TTL:     5 * time.Minute,
		IDBytes: 16,
	}
	cookieCfg := session.CookieConfig{
		Name: cookieName,
		Path: "/",
	}

	authSvc := &auth.Service{
		Users:    usrRepo,
		Sessions: sessionManager,
		Tokens:   auth.NewTokenIssuer("integration-secret", auth.DefaultTokenTTL),
	}
	usersSvc := &users.Service{Store: usrRepo}
	wishlistSvc := &wishlist.Service{Store: wishRepo}

	app := &httpapi.App{
		Health:        &httpapi.HealthHandler{DB: base},
		Auth:          &httpapi.AuthHandler{Service: authSvc, Accounts: usersSvc, Cookie: cookieCfg},
		Users:         &httpapi.UsersHandler{Service: usersSvc, Sessions: sessionManager, Wishlist: wishlistSvc},
		Books:         &httpapi.BooksHandler{Service: &books.Service{Store: bookRepo}},
		Wishlist:      &httpapi.WishlistHandler{Service: wishlistSvc},
		GoogleBooks:   &httpapi.GoogleBooksHandler{},
		Authenticator: authSvc,
	}

	srv := httptest.NewServer(httpapi.NewRouter(app))
	t.Cleanup(srv.Close)

	return &testEnv{
		baseURL: srv.URL,
		server:  srv,
		db:      pool,
		users:   usrRepo,
	}
}

func (e *testEnv) deleteUser(t *testing.T, id string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = e.db.Pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", id)
	})
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

type account struct {
	ID        string
	Email     string
	Token     string
	CSRFToken string
}

func signup(t *testing.T, env *testEnv, client *http.Client, password string) account {
	t.Helper()

	suffix := internal.RandomHex(6)
	payload := map[string]string{
		"username": "ci_" + suffix,
		"email":    fmt.Sprintf("ci_%s@example.com", suffix),
		"password": password,
	}
	res := doJSON(t, client, http.MethodPost, env.baseURL+"/v1/auth/signup", "", payload)
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("signup status: %d", res.StatusCode)
	}

	var out httpapi.SignupResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if out.User == nil || out.User.ID == "" {
		t.Fatal("signup missing user id")
	}
	env.deleteUser(t, out.User.ID)
	return account{ID: out.User.ID, Email: payload["email"]}
}

func login(t *testing.T, env *testEnv, client *http.Client, acc *account, password string) {
	t.Helper()

	payload := map[string]string{
		"email":    acc.Email,
		"password": password,
	}
	res := doJSON(t, client, http.MethodPost, env.baseURL+"/v1/auth/login", "", payload)
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", res.StatusCode)
	}

	var out httpapi.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if out.Token == "" {
		t.Fatal("login missing token")
	}
	acc.Token = out.Token
	acc.CSRFToken = out.CSRFToken

	base, err := url.Parse(env.baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	found := false
	for _, c := range client.Jar.Cookies(base) {
		if c.Name == cookieName && c.Value != "" {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("missing session cookie after login")
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) *http.Response {
	t.Helper()

	buf := bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal json: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var out T
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode %T: %v", out, err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status: %d", res.StatusCode)
	}
}

func TestAuthSessionLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)

	acc := signup(t, env, client, "secret123")
	login(t, env, client, &acc, "secret123")

	res := doJSON(t, client, http.MethodGet, env.baseURL+"/v1/users/profile", "", nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("profile status after login: %d", res.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, env.baseURL+"/v1/auth/logout", nil)
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status: %d", res.StatusCode)
	}

	res = doJSON(t, client, http.MethodGet, env.baseURL+"/v1/users/profile", "", nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile status after logout: %d", res.StatusCode)
	}
}

func TestAuthRejectsDuplicateSignupAndBadPassword(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)

	acc := signup(t, env, client, "secret123")

	res := doJSON(t, client, http.MethodPost, env.baseURL+"/v1/auth/signup", "", map[string]string{
		"username": "other_" + internal.RandomHex(4),
		"email":    acc.Email,
		"password": "secret123",
	})
	_ = res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status: %d", res.StatusCode)
	}

	res = doJSON(t, client, http.MethodPost, env.baseURL+"/v1/auth/login", "", map[string]string{
		"email":    acc.Email,
		"password": "wrong-password",
	})
	_ = res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status: %d", res.StatusCode)
	}
}

func TestBooksEndpoints(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)

	acc := signup(t, env, client, "secret123")
	login(t, env, client, &acc, "secret123")

	res, err := http.Get(env.baseURL + "/v1/books")
	if err != nil {
		t.Fatalf("books list no auth: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("books list no auth status: %d", res.StatusCode)
	}

	create := map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
		"genre":  "Sci-Fi",
		"tags":   []string{"classic"},
		"rating": 5,
	}
	res = doJSON(t, client, http.MethodPost, env.baseURL+"/v1/books", acc.Token, create)
	if res.StatusCode != http.StatusCreated {
		_ = res.Body.Close()
		t.Fatalf("create book status: %d", res.StatusCode)
	}
	created := decode[books.Book](t, res)
	if created.ID == "" || created.Status != books.StatusUnread || !created.IsPublic {
		t.Fatalf("unexpected created book: %+v", created)
	}

	res = doJSON(t, client, http.MethodPost, env.baseURL+"/v1/books", acc.Token, map[string]any{
		"title":  "Notes",
		"author": "Anon",
		"status": "reading",
	})
	if res.StatusCode != http.StatusCreated {
		_ = res.Body.Close()
		t.Fatalf("create second book status: %d", res.StatusCode)
	}
	second := decode[books.Book](t, res)

	res = doJSON(t, client, http.MethodGet, env.baseURL+"/v1/books", acc.Token, nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("list books status: %d", res.StatusCode)
	}
	list := decode[[]books.Book](t, res)
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	res = doJSON(t, client, http.MethodPost, env.baseURL+"/v1/books/filter?page=1&limit=1", acc.Token, map[string]any{
		"tags": []string{"classic"},
	})
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("filter status: %d", res.StatusCode)
	}
	filtered := decode[books.FilterResult](t, res)
	if filtered.FilteredTotal != 1 || filtered.OverallTotal != 2 || len(filtered.Books) != 1 {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}

	private := false
	res = doJSON(t, client, http.MethodPut, env.baseURL+"/v1/books/"+created.ID, acc.Token, map[string]any{
		"status":   "completed",
		"isPublic": private,
	})
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("update status: %d", res.StatusCode)
	}
	updated := decode[books.Book](t, res)
	if updated.Status != books.StatusCompleted || updated.IsPublic {
		t.Fatalf("book not updated: %+v", updated)
	}

	res = doJSON(t, client, http.MethodPost, env.baseURL+"/v1/books/export", acc.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("export status: %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("export content type: %q", ct)
	}

	res = doJSON(t, client, http.MethodGet, env.baseURL+"/v1/books/stats/details", acc.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stats status: %d", res.StatusCode)
	}

	res = doJSON(t, client, http.MethodDelete, env.baseURL+"/v1/books/bulk-delete", acc.Token, map[string]any{
		"ids": []string{created.ID, second.ID},
	})
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("bulk delete status: %d", res.StatusCode)
	}
	bulk := decode[httpapi.BulkDeleteResponse](t, res)
	if bulk.Count != 2 {
		t.Fatalf("bulk delete count: %d", bulk.Count)
	}

	res = doJSON(t, client, http.MethodGet, env.baseURL+"/v1/books/"+created.ID, acc.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted book status: %d", res.StatusCode)
	}
}

func TestBooksOwnershipAndExplore(t *testing.T) {
	env := newTestEnv(t)
	ownerClient := newClient(t)
	otherClient := newClient(t)

	owner := signup(t, env, ownerClient, "secret123")
	login(t, env, ownerClient, &owner, "secret123")
	other := signup(t, env, otherClient, "secret123")
	login(t, env, otherClient, &other, "secret123")

	title := "Explore " + internal.RandomHex(4)
	res := doJSON(t, ownerClient, http.MethodPost, env.baseURL+"/v1/books", owner.Token, map[string]any{
		"title":  title,
		"author": "Someone",
	})
	if res.StatusCode != http.StatusCreated {
		_ = res.Body.Close()
		t.Fatalf("create book status: %d", res.StatusCode)
	}
	b := decode[books.Book](t, res)

	res = doJSON(t, otherClient, http.MethodGet, env.baseURL+"/v1/books/"+b.ID, other.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("public book read by other status: %d", res.StatusCode)
	}

	res = doJSON(t, otherClient, http.MethodDelete, env.baseURL+"/v1/books/"+b.ID, other.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("delete by other status: %d", res.StatusCode)
	}

	res = doJSON(t, http.DefaultClient, http.MethodGet, env.baseURL+"/v1/books/explore?q="+url.QueryEscape(title), "", nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("explore status: %d", res.StatusCode)
	}
	explored := decode[books.ExploreResult](t, res)
	if len(explored.Books) != 1 {
		t.Fatalf("explore expected one book, got %d", len(explored.Books))
	}

	res = doJSON(t, otherClient, http.MethodPost, env.baseURL+"/v1/users/wishlist/toggle/"+b.ID, other.Token, nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("wishlist toggle status: %d", res.StatusCode)
	}
	toggled := decode[httpapi.ToggleResponse](t, res)
	if !toggled.Added || len(toggled.Wishlist) != 1 {
		t.Fatalf("unexpected toggle result: %+v", toggled)
	}

	res = doJSON(t, otherClient, http.MethodGet, env.baseURL+"/v1/users/wishlist", other.Token, nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("wishlist list status: %d", res.StatusCode)
	}
	wished := decode[[]books.Book](t, res)
	if len(wished) != 1 || wished[0].ID != b.ID {
		t.Fatalf("unexpected wishlist: %+v", wished)
	}
}

func TestUsersAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminClient := newClient(t)
	userClient := newClient(t)

	admin := signup(t, env, adminClient, "adminpass")
	if _, err := env.users.UpdateRole(context.Background(), admin.ID, users.RoleSuperAdmin); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	login(t, env, adminClient, &admin, "adminpass")

	user := signup(t, env, userClient, "userpass")
	login(t, env, userClient, &user, "userpass")

	res := doJSON(t, userClient, http.MethodGet, env.baseURL+"/v1/users", user.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("users list status (student): %d", res.StatusCode)
	}

	res = doJSON(t, adminClient, http.MethodGet, env.baseURL+"/v1/users", admin.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("users list status (admin): %d", res.StatusCode)
	}

	res = doJSON(t, adminClient, http.MethodPut, env.baseURL+"/v1/users/"+user.ID+"/role", admin.Token, map[string]string{
		"role": "admin",
	})
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("role update status: %d", res.StatusCode)
	}
	changed := decode[httpapi.RoleChangeResponse](t, res)
	if changed.UpdatedUser.Role != users.RoleAdmin {
		t.Fatalf("role not changed: %+v", changed)
	}

	updated, err := env.users.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get updated user: %v", err)
	}
	if updated.Role != users.RoleAdmin {
		t.Fatalf("stored role mismatch: %s", updated.Role)
	}
}

func createBook(t *testing.T, env *testEnv, client *http.Client, acc account, body map[string]any) books.Book {
	t.Helper()
	res := doJSON(t, client, http.MethodPost, env.baseURL+"/v1/books", acc.Token, body)
	if res.StatusCode != http.StatusCreated {
		_ = res.Body.Close()
		t.Fatalf("create book status: %d", res.StatusCode)
	}
	return decode[books.Book](t, res)
}

func makePrivate(t *testing.T, env *testEnv, client *http.Client, acc account, bookID string) {
	t.Helper()
	res := doJSON(t, client, http.MethodPut, env.baseURL+"/v1/books/"+bookID, acc.Token, map[string]any{"isPublic": false})
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("make private status: %d", res.StatusCode)
	}
}

func TestWishlistHidesPrivateBooksOfOthers(t *testing.T) {
	env := newTestEnv(t)
	ownerClient := newClient(t)
	otherClient := newClient(t)

	owner := signup(t, env, ownerClient, "secret123")
	login(t, env, ownerClient, &owner, "secret123")
	other := signup(t, env, otherClient, "secret123")
	login(t, env, otherClient, &other, "secret123")

	secret := createBook(t, env, ownerClient, owner, map[string]any{"title": "Diary", "author": "Owner"})
	makePrivate(t, env, ownerClient, owner, secret.ID)

	res := doJSON(t, otherClient, http.MethodPost, env.baseURL+"/v1/users/wishlist/toggle/"+secret.ID, other.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("toggle private book of other status: %d", res.StatusCode)
	}

	res = doJSON(t, otherClient, http.MethodPost, env.baseURL+"/v1/users/wishlist/bulk", other.Token, map[string]any{
		"bookIds": []string{secret.ID},
	})
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("bulk add status: %d", res.StatusCode)
	}
	bulk := decode[httpapi.WishlistBulkResponse](t, res)
	if bulk.Count != 0 {
		t.Fatalf("private book of other added: %+v", bulk)
	}

	res = doJSON(t, ownerClient, http.MethodPost, env.baseURL+"/v1/users/wishlist/toggle/"+secret.ID, owner.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("owner toggle own private book status: %d", res.StatusCode)
	}

	shared := createBook(t, env, ownerClient, owner, map[string]any{"title": "Letters", "author": "Owner"})
	res = doJSON(t, otherClient, http.MethodPost, env.baseURL+"/v1/users/wishlist/toggle/"+shared.ID, other.Token, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle public book status: %d", res.StatusCode)
	}

	makePrivate(t, env, ownerClient, owner, shared.ID)

	res = doJSON(t, otherClient, http.MethodGet, env.baseURL+"/v1/users/wishlist", other.Token, nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("wishlist list status: %d", res.StatusCode)
	}
	if wished := decode[[]books.Book](t, res); len(wished) != 0 {
		t.Fatalf("wishlist exposes private books: %+v", wished)
	}

	res = doJSON(t, otherClient, http.MethodGet, env.baseURL+"/v1/users/profile", other.Token, nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("profile status: %d", res.StatusCode)
	}
	profile := decode[struct {
		Wishlist []string `json:"wishlist"`
	}](t, res)
	if len(profile.Wishlist) != 0 {
		t.Fatalf("profile wishlist exposes private books: %v", profile.Wishlist)
	}
}

func TestExploreGroupsByGoogleID(t *testing.T) {
	env := newTestEnv(t)
	firstClient := newClient(t)
	secondClient := newClient(t)

	first := signup(t, env, firstClient, "secret123")
	login(t, env, firstClient, &first, "secret123")
	second := signup(t, env, secondClient, "secret123")
	login(t, env, secondClient, &second, "secret123")

	marker := "Mark" + internal.RandomHex(4)
	volume := "vol_" + internal.RandomHex(6)

	original := createBook(t, env, firstClient, first, map[string]any{
		"title": marker + " Dune", "author": "Herbert", "googleId": volume,
	})
	time.Sleep(10 * time.Millisecond)
	createBook(t, env, secondClient, second, map[string]any{
		"title": marker + " Dune (copy)", "author": "Herbert", "googleId": volume,
	})
	soloA := createBook(t, env, firstClient, first, map[string]any{"title": marker + " Solo", "author": "Anon"})
	soloB := createBook(t, env, secondClient, second, map[string]any{"title": marker + " Solo", "author": "Anon"})

	res := doJSON(t, http.DefaultClient, http.MethodGet, env.baseURL+"/v1/books/explore?q="+url.QueryEscape(marker), "", nil)
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		t.Fatalf("explore status: %d", res.StatusCode)
	}
	explored := decode[books.ExploreResult](t, res)
	if len(explored.Books) != 3 {
		t.Fatalf("explore expected three entries, got %+v", explored.Books)
	}

	byKey := make(map[string]books.ExploreItem, len(explored.Books))
	for _, item := range explored.Books {
		byKey[item.Key] = item
	}
	group, ok := byKey["g:"+volume]
	if !ok {
		t.Fatalf("missing google volume group: %+v", explored.Books)
	}
	if group.ID != original.ID || group.Title != original.Title {
		t.Fatalf("group should show the earliest copy, got %+v", group)
	}
	if _, ok := byKey["b:"+soloA.ID]; !ok {
		t.Fatalf("missing standalone book %s", soloA.ID)
	}
	if _, ok := byKey["b:"+soloB.ID]; !ok {
		t.Fatalf("missing standalone book %s", soloB.ID)
	}
	if explored.Books[0].Key != "g:"+volume {
		t.Fatalf("volume groups sort ahead of standalone books, got %+v", explored.Books)
	}
}
