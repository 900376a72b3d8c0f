package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephankoppes/book-nest/internal/app"
	"github.com/stephankoppes/book-nest/internal/config"
	"github.com/stephankoppes/book-nest/internal/datastore"
	"github.com/stephankoppes/book-nest/internal/domain"
	"github.com/stephankoppes/book-nest/internal/webtest"
)

type testEnv struct {
	w        *webtest.W
	db       *datastore.MemoryDB
	identity *datastore.MemoryIdentity
	covers   *datastore.MemoryCovers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := datastore.NewMemoryDB()
	identity := datastore.NewMemoryIdentity()
	covers := datastore.NewMemoryCovers("https://cdn.test")

	cfg := &config.Config{
		Addr:          ":0",
		Backend:       "memory",
		SessionSecret: "test-secret",
	}
	a := app.New(cfg, identity, identity, func(string) (domain.LibraryDatabase, domain.CoverStore) {
		return db, covers
	})
	return &testEnv{
		w:        webtest.New(t, a.Handler()),
		db:       db,
		identity: identity,
		covers:   covers,
	}
}

// register signs up through the form and waits for the dashboard to
// show the display name, i.e. for the shelf's initial refresh.
func (e *testEnv) register(t *testing.T, name, email string) {
	t.Helper()
	resp, _ := e.w.PostForm("/register", url.Values{
		"name":                 {name},
		"email":                {email},
		"password":             {"secret"},
		"passwordConfirmation": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/private/dashboard", resp.Header.Get("Location"))

	require.Eventually(t, func() bool {
		resp, body := e.w.Get("/private/dashboard")
		return resp.StatusCode == http.StatusOK && strings.Contains(body, name)
	}, 2*time.Second, 10*time.Millisecond, "dashboard never showed the display name")
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.w.PostForm("/login", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Email is required.")
	assert.Contains(t, body, "Password is required.")
}

func TestLoginKeepsSubmittedEmail(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.w.PostForm("/login", url.Values{"email": {"frida@example.com"}})
	assert.Contains(t, body, "frida@example.com")
	assert.Contains(t, body, "Password is required.")
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.w.PostForm("/login", url.Values{
		"email":    {"nobody@example.com"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.w.PostForm("/register", url.Values{
		"name":                 {"ab"},
		"email":                {""},
		"password":             {"one"},
		"passwordConfirmation": {"two"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Name has to be at least of length 3 characters.")
	assert.Contains(t, body, "Email is required.")
	assert.Contains(t, body, "Passwords do not match.")
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Frida", "frida@example.com")

	resp, _ := env.w.PostForm("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The cookie session is gone; private pages bounce to login.
	resp, _ = env.w.Get("/private/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// And logging back in works.
	resp, _ = env.w.PostForm("/login", url.Values{
		"email":    {"frida@example.com"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/private/dashboard", resp.Header.Get("Location"))
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.w.Get("/private/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestBookLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Frida", "frida@example.com")

	// Import two scanned books.
	resp, _ := env.w.PostJSON("/private/books/import",
		`[{"bookTitle":"Dune","author":"Frank Herbert"},{"bookTitle":"Emma","author":"Jane Austen"}]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.w.Get("/private/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "Emma")

	resp, body = env.w.Get("/private/books/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dune")

	// Partial update.
	resp, _ = env.w.PostForm("/private/books/1", url.Values{
		"genre":  {"Sci-Fi"},
		"rating": {"5"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = env.w.Get("/private/books/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sci-Fi")

	// Delete redirects to the dashboard.
	resp, _ = env.w.PostForm("/private/books/1:delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/private/dashboard", resp.Header.Get("Location"))

	resp, _ = env.w.Get("/private/books/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditWithBlankDatesKeepsBookUnread(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Frida", "frida@example.com")

	resp, _ := env.w.PostJSON("/private/books/import", `[{"bookTitle":"Dune","author":"Frank Herbert"}]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// A browser submits every input, blank date fields included.
	resp, _ = env.w.PostForm("/private/books/1", url.Values{
		"title":               {"Dune"},
		"author":              {"Frank Herbert"},
		"genre":               {"Sci-Fi"},
		"description":         {""},
		"rating":              {""},
		"started_reading_on":  {""},
		"finished_reading_on": {""},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	session, err := env.identity.SignInWithPassword(context.Background(), "frida@example.com", "secret")
	require.NoError(t, err)
	books, err := env.db.ListBooksByUser(context.Background(), session.User.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.NotNil(t, books[0].Genre)
	assert.Equal(t, "Sci-Fi", *books[0].Genre)
	assert.Nil(t, books[0].StartedReadingOn)
	assert.Nil(t, books[0].FinishedReadingOn)

	// The edited book is still listed under Unread.
	_, body := env.w.Get("/private/dashboard")
	start := strings.Index(body, "Unread")
	require.NotEqual(t, -1, start)
	section := body[start:]
	section = section[:strings.Index(section, "</ul>")]
	assert.Contains(t, section, "Dune")
}

func TestRegisterNameLengthCountsCharacters(t *testing.T) {
	env := newTestEnv(t)

	// Two characters, six bytes.
	resp, body := env.w.PostForm("/register", url.Values{
		"name":                 {"山田"},
		"email":                {"yamada@example.com"},
		"password":             {"secret"},
		"passwordConfirmation": {"secret"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Name has to be at least of length 3 characters.")

	resp, _ = env.w.PostForm("/register", url.Values{
		"name":                 {"山田花子"},
		"email":                {"yamada@example.com"},
		"password":             {"secret"},
		"passwordConfirmation": {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/private/dashboard", resp.Header.Get("Location"))
}

func TestDeleteRedirectsEvenWhenBackendFails(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Frida", "frida@example.com")

	resp, _ := env.w.PostJSON("/private/books/import", `[{"bookTitle":"Dune","author":"Frank Herbert"}]`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	env.db.DeleteErr = errors.New("permission denied")
	resp, _ = env.w.PostForm("/private/books/1:delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/private/dashboard", resp.Header.Get("Location"))

	// The book is still there.
	resp, _ = env.w.Get("/private/books/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAddBookForm(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Frida", "frida@example.com")

	resp, _ := env.w.PostForm("/private/books", url.Values{
		"title":  {"The Dispossessed"},
		"author": {"Ursula K. Le Guin"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := env.w.Get("/private/dashboard")
	assert.Contains(t, body, "The Dispossessed")
}

func TestDeleteAccountWithoutHeader(t *testing.T) {
	env := newTestEnv(t)

	req := env.w.NewRequest(http.MethodDelete, "/api/delete-account", nil)
	resp, body := env.w.Do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "No valid authorization header")
}

func TestDeleteAccountInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	req := env.w.NewRequest(http.MethodDelete, "/api/delete-account", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp, body := env.w.Do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid session")
}

func TestDeleteAccountBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.identity.SignUp(context.Background(), "frida@example.com", "secret")
	require.NoError(t, err)
	env.identity.DeleteErr = errors.New("admin API unavailable")

	req := env.w.NewRequest(http.MethodDelete, "/api/delete-account", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	resp, body := env.w.Do(req)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Failed to delete user account")
}

func TestDeleteAccountSuccess(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.identity.SignUp(context.Background(), "frida@example.com", "secret")
	require.NoError(t, err)

	req := env.w.NewRequest(http.MethodDelete, "/api/delete-account", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	resp, body := env.w.Do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Account successfully deleted")

	_, err = env.identity.SignInWithPassword(context.Background(), "frida@example.com", "secret")
	assert.Error(t, err)
}

func TestScanShelfReturnsFixedList(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.w.PostJSON("/api/scan-shelf", `{"base64":"aWdub3JlZA=="}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		BookArray []domain.ScanResult `json:"bookArray"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.Len(t, payload.BookArray, 10)
	assert.Equal(t, domain.ScanResult{BookTitle: "The Diary of a CEO", Author: "Steven Bartlett"}, payload.BookArray[0])

	// Input content does not matter.
	_, again := env.w.PostJSON("/api/scan-shelf", `{"base64":"ZGlmZmVyZW50"}`)
	assert.Equal(t, body, again)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.w.Get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}
