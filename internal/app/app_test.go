package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedbook/internal/auth"
	"pedbook/internal/cache"
	"pedbook/internal/config"
	"pedbook/internal/db"
	"pedbook/internal/mailer"
	"pedbook/internal/model"
	"pedbook/internal/repository"
	"pedbook/internal/service"
)

type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *captureSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.Subject)
	}
	return out
}

type testServer struct {
	t    *testing.T
	app  *App
	mail *captureSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		ServerPort:     "0",
		JWTSecret:      "test-secret",
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		PublicBaseURL:  "http://pedbook.test",
		LoanDays:       14,
		MaxLoanDays:    60,
		FinePerDay:     decimal.RequireFromString("0.50"),
		CORSOrigins:    []string{"http://localhost:5173"},
	}

	gormDB, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	cacheClient := cache.New("", "", 0)
	mail := &captureSender{}
	a, err := New(cfg, gormDB, cacheClient, mail)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	// Librarians are only created by other librarians or the CLI.
	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret),
		auth.NewTokenStore(cacheClient),
		nil,
	)
	_, err = authService.Register(context.Background(), service.RegisterInput{
		Username: "marian",
		Password: "shelves1",
		Role:     model.RoleLibrarian,
	})
	require.NoError(t, err)

	return &testServer{t: t, app: a, mail: mail}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func idOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return strconv.Itoa(int(decode(t, rec)["id"].(float64)))
}

func TestLibraryFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "wonderland", "email": "Alice@Example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "reader", decode(t, rec)["role"])

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "again123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	reader := s.login("alice", "wonderland")
	librarian := s.login("marian", "shelves1")

	// Catalog
	rec = s.do(http.MethodPost, "/api/authors", reader, map[string]string{"name": "Frank Herbert"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/authors", librarian, map[string]string{"name": "Frank Herbert"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	author := decode(t, rec)
	authorID := idOf(t, rec)

	rec = s.do(http.MethodPost, "/api/books", librarian, map[string]interface{}{
		"title": "Dune", "isbn": "978-0-306-40615-7", "author_id": author["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	book := decode(t, rec)
	bookID := idOf(t, rec)
	assert.Equal(t, "9780306406157", book["isbn"])

	// Legacy root routes serve the same data.
	rec = s.do(http.MethodGet, "/books?search=dun", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["meta"].(map[string]interface{})["total"])

	rec = s.do(http.MethodDelete, "/api/authors/"+authorID, librarian, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Loans
	rec = s.do(http.MethodPost, "/api/loans", reader, map[string]interface{}{"book_id": book["id"]})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loanID := idOf(t, rec)
	assert.Equal(t, false, decode(t, rec)["overdue"])

	rec = s.do(http.MethodPost, "/api/loans", reader, map[string]interface{}{"book_id": book["id"]})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "/api/books/"+bookID, librarian, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/loans/me", reader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodGet, "/api/loans", reader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/loans/"+loanID+"/return", reader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, decode(t, rec)["returned_at"])

	rec = s.do(http.MethodPost, "/api/loans/"+loanID+"/return", reader, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Reviews
	rec = s.do(http.MethodPost, "/api/reviews", reader, map[string]interface{}{"book_id": book["id"], "rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/reviews", reader, map[string]interface{}{"book_id": book["id"], "rating": 5, "comment": "Spice!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/reviews", reader, map[string]interface{}{"book_id": book["id"], "rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/books/"+bookID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]interface{})
	assert.EqualValues(t, 1, summary["count"])
	assert.EqualValues(t, 5, summary["average"])

	// Emails go out in the background.
	assert.Eventually(t, func() bool { return len(s.mail.subjects()) >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestConcurrentDuplicateLoans(t *testing.T) {
	s := newTestServer(t)
	librarian := s.login("marian", "shelves1")

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "carol", "password": "readmore"})
	require.Equal(t, http.StatusCreated, rec.Code)
	reader := s.login("carol", "readmore")

	rec = s.do(http.MethodPost, "/api/authors", librarian, map[string]string{"name": "Ursula K. Le Guin"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/api/books", librarian, map[string]interface{}{
		"title": "The Dispossessed", "author_id": decode(t, rec)["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookID := idOf(t, rec)

	const attempts = 8
	codes := make(chan int, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/loans", strings.NewReader(`{"book_id":`+bookID+`}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+reader)
			<-start
			w := httptest.NewRecorder()
			s.app.Echo.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	close(start)
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: attempts - 1}, counts)

	rec = s.do(http.MethodGet, "/api/loans/me", reader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestDeleteUserWithHistory(t *testing.T) {
	s := newTestServer(t)
	librarian := s.login("marian", "shelves1")

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dora", "password": "explorer", "email": "dora@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	doraID := idOf(t, rec)
	dora := s.login("dora", "explorer")

	rec = s.do(http.MethodPost, "/api/authors", librarian, map[string]string{"name": "Italo Calvino"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/api/books", librarian, map[string]interface{}{
		"title": "Invisible Cities", "author_id": decode(t, rec)["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	book := decode(t, rec)
	bookID := idOf(t, rec)

	rec = s.do(http.MethodPost, "/api/loans", dora, map[string]interface{}{"book_id": book["id"]})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loanID := idOf(t, rec)

	rec = s.do(http.MethodDelete, "/api/users/"+doraID, librarian, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/loans/"+loanID+"/return", dora, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/reviews", dora, map[string]interface{}{"book_id": book["id"], "rating": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/users/"+doraID, librarian, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/users/"+doraID, librarian, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, "/api/users/"+doraID, librarian, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "dora", "password": "explorer"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// History survives and still names the borrower.
	rec = s.do(http.MethodGet, "/api/loans/"+loanID, librarian, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "dora", decode(t, rec)["user"].(map[string]interface{})["username"])

	rec = s.do(http.MethodGet, "/api/books/"+bookID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["summary"].(map[string]interface{})["count"])

	// The username stays reserved; the email can be used by a new account.
	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "dora", "password": "explorer"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dora2", "password": "explorer", "email": "dora@example.com",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestProfileAccess(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "password": "builder1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bobID := idOf(t, rec)
	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "eve", "password": "listener"})
	require.Equal(t, http.StatusCreated, rec.Code)

	eve := s.login("eve", "listener")
	bob := s.login("bob", "builder1")

	rec = s.do(http.MethodGet, "/api/users/"+bobID, eve, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, "/api/users/"+bobID, bob, map[string]string{"display_name": "Bob B."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bob B.", decode(t, rec)["display_name"])

	rec = s.do(http.MethodGet, "/api/me", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", decode(t, rec)["username"])

	rec = s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/users", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadAndServePhoto(t *testing.T) {
	s := newTestServer(t)
	librarian := s.login("marian", "shelves1")

	rec := s.do(http.MethodPost, "/api/authors", librarian, map[string]string{"name": "Gabriel García Márquez"})
	require.Equal(t, http.StatusCreated, rec.Code)
	authorID := idOf(t, rec)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("photo", "Portrait Photo.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/authors/"+authorID+"/photo", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+librarian)
	rec = httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	photo := decode(t, rec)["photo"].(string)
	assert.True(t, strings.HasPrefix(photo, "/uploads/authors/portrait-photo-"), photo)
	assert.True(t, strings.HasSuffix(photo, ".png"), photo)

	rec = s.do(http.MethodGet, photo, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Case and extension differences still find the file.
	stem := strings.TrimSuffix(strings.TrimPrefix(photo, "/uploads/authors/"), ".png")
	rec = s.do(http.MethodGet, "/api/uploads/authors/"+strings.ToUpper(stem)+".jpg", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/uploads/authors/nobody.png", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/no-such-thing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
