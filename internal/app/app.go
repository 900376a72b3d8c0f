// Package app wires the HTTP surface: page handlers, form actions,
// the JSON API endpoints, and the per-session shelf registry.
package app

import (
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/stephankoppes/book-nest/internal/config"
	"github.com/stephankoppes/book-nest/internal/domain"
	"github.com/stephankoppes/book-nest/internal/shelf"
)

const sessionName = "book-nest"

var (
	loginTmpl     = parseTemplate("login.html")
	registerTmpl  = parseTemplate("register.html")
	dashboardTmpl = parseTemplate("dashboard.html")
	bookTmpl      = parseTemplate("book.html")
	addTmpl       = parseTemplate("add.html")
)

// SessionClients builds the row and object-storage clients bound to
// one session's access token.
type SessionClients func(accessToken string) (domain.LibraryDatabase, domain.CoverStore)

// App is the web application: identity clients, the cookie session
// store, and one Shelf per signed-in session.
type App struct {
	cfg     *config.Config
	auth    domain.Identity
	admin   domain.Identity
	clients SessionClients
	store   sessions.Store

	mu      sync.Mutex
	shelves map[string]*shelf.Shelf
}

// New assembles the App. auth is the anon-key identity client; admin
// holds the service-role key and is only used by the account-deletion
// endpoint.
func New(cfg *config.Config, auth, admin domain.Identity, clients SessionClients) *App {
	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
	}
	return &App{
		cfg:     cfg,
		auth:    auth,
		admin:   admin,
		clients: clients,
		store:   cookieStore,
		shelves: make(map[string]*shelf.Shelf),
	}
}

// Handler builds the route table and wraps it with request logging.
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()

	r.Handle("/", http.RedirectHandler("/private/dashboard", http.StatusFound))

	r.Methods("GET").Path("/login").Handler(appHandler(a.loginFormHandler))
	r.Methods("POST").Path("/login").Handler(appHandler(a.loginHandler))
	r.Methods("GET").Path("/register").Handler(appHandler(a.registerFormHandler))
	r.Methods("POST").Path("/register").Handler(appHandler(a.registerHandler))
	r.Methods("POST").Path("/logout").Handler(appHandler(a.logoutHandler))

	r.Methods("GET").Path("/private/dashboard").Handler(appHandler(a.dashboardHandler))
	r.Methods("GET").Path("/private/books/add").Handler(appHandler(a.addFormHandler))
	r.Methods("POST").Path("/private/books").Handler(appHandler(a.addBooksHandler))
	r.Methods("POST").Path("/private/books/import").Handler(appHandler(a.importBooksHandler))
	r.Methods("GET").Path("/private/books/{id:[0-9]+}").Handler(appHandler(a.bookHandler))
	r.Methods("POST").Path("/private/books/{id:[0-9]+}").Handler(appHandler(a.updateBookHandler))
	r.Methods("POST").Path("/private/books/{id:[0-9]+}/cover").Handler(appHandler(a.uploadCoverHandler))
	r.Methods("POST").Path("/private/books/{id:[0-9]+}:delete").Handler(appHandler(a.deleteBookHandler))

	r.Methods("DELETE").Path("/api/delete-account").HandlerFunc(a.deleteAccountHandler)
	r.Methods("POST").Path("/api/scan-shelf").HandlerFunc(a.scanShelfHandler)

	r.Methods("GET").Path("/healthz").HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

	return handlers.CombinedLoggingHandler(os.Stderr, r)
}

// startSession stores the backend session in the cookie and registers
// a Shelf for it.
func (a *App) startSession(w http.ResponseWriter, r *http.Request, session *domain.Session) error {
	cookie, _ := a.store.Get(r, sessionName)
	cookie.Values["access_token"] = session.AccessToken
	cookie.Values["refresh_token"] = session.RefreshToken
	cookie.Values["user_id"] = session.User.ID
	cookie.Values["user_email"] = session.User.Email
	if err := cookie.Save(r, w); err != nil {
		return err
	}

	a.registerShelf(session)
	return nil
}

func (a *App) registerShelf(session *domain.Session) *shelf.Shelf {
	db, covers := a.clients(session.AccessToken)
	s := shelf.New(shelf.Params{
		Session:  session,
		DB:       db,
		Covers:   covers,
		Identity: a.auth,
		User:     session.User,
	})
	a.mu.Lock()
	a.shelves[session.AccessToken] = s
	a.mu.Unlock()
	return s
}

// dropShelf releases the Shelf registered for a token, so the registry
// does not grow with every login.
func (a *App) dropShelf(token string) {
	a.mu.Lock()
	delete(a.shelves, token)
	a.mu.Unlock()
}

// shelfFromRequest resolves the Shelf for the request's cookie
// session, rebuilding it from the stored tokens when the server has
// restarted since login. Returns nil when no session is present.
func (a *App) shelfFromRequest(r *http.Request) *shelf.Shelf {
	cookie, err := a.store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	token, _ := cookie.Values["access_token"].(string)
	userID, _ := cookie.Values["user_id"].(string)
	if token == "" || userID == "" {
		return nil
	}

	a.mu.Lock()
	s, ok := a.shelves[token]
	a.mu.Unlock()
	if ok {
		return s
	}

	refresh, _ := cookie.Values["refresh_token"].(string)
	email, _ := cookie.Values["user_email"].(string)
	return a.registerShelf(&domain.Session{
		AccessToken:  token,
		RefreshToken: refresh,
		User:         &domain.User{ID: userID, Email: email},
	})
}

func (a *App) clearSession(w http.ResponseWriter, r *http.Request) {
	cookie, _ := a.store.Get(r, sessionName)
	cookie.Options.MaxAge = -1
	cookie.Save(r, w)
}
