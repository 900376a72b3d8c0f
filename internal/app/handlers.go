package app

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/stephankoppes/book-nest/internal/domain"
	"github.com/stephankoppes/book-nest/internal/shelf"
)

// formResult carries a form action's outcome back to the page:
// submitted values plus an error list, never a protocol-level error.
type formResult struct {
	Success  bool
	Name     string
	Email    string
	Password string
	Errors   []string
}

func (a *App) loginFormHandler(w http.ResponseWriter, r *http.Request) *appError {
	return loginTmpl.Execute(w, r, formResult{Success: true})
}

func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) *appError {
	email := r.FormValue("email")
	password := r.FormValue("password")

	result := formResult{Success: true, Email: email, Password: password}
	if email == "" {
		result.Errors = append(result.Errors, "Email is required.")
	}
	if password == "" {
		result.Errors = append(result.Errors, "Password is required.")
	}
	if len(result.Errors) > 0 {
		result.Success = false
		return loginTmpl.Execute(w, r, result)
	}

	session, err := a.auth.SignInWithPassword(r.Context(), email, password)
	if err != nil || session.User == nil {
		result.Success = false
		w.WriteHeader(http.StatusBadRequest)
		return loginTmpl.Execute(w, r, result)
	}

	if err := a.startSession(w, r, session); err != nil {
		return appErrorf(err, "could not save session: %v", err)
	}
	http.Redirect(w, r, "/private/dashboard", http.StatusSeeOther)
	return nil
}

func (a *App) registerFormHandler(w http.ResponseWriter, r *http.Request) *appError {
	return registerTmpl.Execute(w, r, formResult{Success: true})
}

func (a *App) registerHandler(w http.ResponseWriter, r *http.Request) *appError {
	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	passwordConfirmation := r.FormValue("passwordConfirmation")

	result := formResult{Success: true, Name: name, Email: email, Password: password}
	if utf8.RuneCountInString(name) < 3 {
		result.Errors = append(result.Errors, "Name has to be at least of length 3 characters.")
	}
	if email == "" {
		result.Errors = append(result.Errors, "Email is required.")
	}
	if password == "" {
		result.Errors = append(result.Errors, "Password is required.")
	}
	if password != passwordConfirmation {
		result.Errors = append(result.Errors, "Passwords do not match.")
	}
	if len(result.Errors) > 0 {
		result.Success = false
		return registerTmpl.Execute(w, r, result)
	}

	session, err := a.auth.SignUp(r.Context(), email, password)
	if err != nil || session.User == nil {
		result.Success = false
		w.WriteHeader(http.StatusBadRequest)
		return registerTmpl.Execute(w, r, result)
	}

	db, _ := a.clients(session.AccessToken)
	if err := db.InsertUserName(r.Context(), session.User.ID, name); err != nil {
		log.Printf("could not store display name for user %s: %v", session.User.ID, err)
	}

	if err := a.startSession(w, r, session); err != nil {
		return appErrorf(err, "could not save session: %v", err)
	}
	http.Redirect(w, r, "/private/dashboard", http.StatusSeeOther)
	return nil
}

func (a *App) logoutHandler(w http.ResponseWriter, r *http.Request) *appError {
	if s := a.shelfFromRequest(r); s != nil {
		s.Logout(r.Context())
	}
	if cookie, err := a.store.Get(r, sessionName); err == nil {
		if token, _ := cookie.Values["access_token"].(string); token != "" {
			a.dropShelf(token)
		}
	}
	a.clearSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return nil
}

type dashboardData struct {
	Name             string
	CurrentlyReading []domain.Book
	HighestRated     []domain.Book
	Unread           []domain.Book
	FavoriteGenre    string
	Books            []domain.Book
}

func (a *App) dashboardHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	return dashboardTmpl.Execute(w, r, dashboardData{
		Name:             s.UserName(),
		CurrentlyReading: s.CurrentlyReading(),
		HighestRated:     s.HighestRated(),
		Unread:           s.Unread(),
		FavoriteGenre:    s.FavoriteGenre(),
		Books:            s.Books(),
	})
}

func (a *App) bookFromRequest(r *http.Request, s *shelf.Shelf) (domain.Book, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return domain.Book{}, false
	}
	return s.Book(id)
}

func (a *App) bookHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	book, ok := a.bookFromRequest(r, s)
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	return bookTmpl.Execute(w, r, book)
}

// formPtr returns a pointer to the submitted value, or nil when the
// field was not part of the form, so absent fields stay out of the
// partial update.
func formPtr(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formDatePtr treats a blank date input as omitted. Browsers submit
// untouched date fields as empty strings, which are not valid dates.
func formDatePtr(r *http.Request, name string) *string {
	p := formPtr(r, name)
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func (a *App) updateBookHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return appErrorf(err, "bad book id: %v", err)
	}
	if err := r.ParseForm(); err != nil {
		return appErrorf(err, "could not parse form: %v", err)
	}

	fields := domain.BookUpdate{
		Title:             formPtr(r, "title"),
		Author:            formPtr(r, "author"),
		Genre:             formPtr(r, "genre"),
		Description:       formPtr(r, "description"),
		StartedReadingOn:  formDatePtr(r, "started_reading_on"),
		FinishedReadingOn: formDatePtr(r, "finished_reading_on"),
	}
	if raw := formPtr(r, "rating"); raw != nil && *raw != "" {
		rating, err := strconv.Atoi(*raw)
		if err != nil {
			return appErrorf(err, "bad rating: %v", err)
		}
		fields.Rating = &rating
	}

	s.UpdateBook(r.Context(), id, fields)
	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	return nil
}

func (a *App) uploadCoverHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return appErrorf(err, "bad book id: %v", err)
	}

	f, fh, err := r.FormFile("cover")
	if err == http.ErrMissingFile {
		http.Redirect(w, r, "/private/books/"+mux.Vars(r)["id"], http.StatusSeeOther)
		return nil
	}
	if err != nil {
		return appErrorf(err, "could not read cover upload: %v", err)
	}
	defer f.Close()

	s.UploadCover(r.Context(), id, fh.Filename, fh.Header.Get("Content-Type"), f)
	http.Redirect(w, r, "/private/books/"+mux.Vars(r)["id"], http.StatusSeeOther)
	return nil
}

func (a *App) deleteBookHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return appErrorf(err, "bad book id: %v", err)
	}

	// The dashboard redirect happens whether or not the delete stuck.
	s.DeleteBook(r.Context(), id)
	http.Redirect(w, r, "/private/dashboard", http.StatusSeeOther)
	return nil
}

func (a *App) addFormHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}
	return addTmpl.Execute(w, r, nil)
}

func (a *App) addBooksHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil
	}

	scan := domain.ScanResult{
		BookTitle: r.FormValue("title"),
		Author:    r.FormValue("author"),
	}
	if err := s.AddBooks(r.Context(), []domain.ScanResult{scan}); err != nil {
		return appErrorf(err, "could not add book: %v", err)
	}
	http.Redirect(w, r, "/private/dashboard", http.StatusSeeOther)
	return nil
}

func (a *App) importBooksHandler(w http.ResponseWriter, r *http.Request) *appError {
	s := a.shelfFromRequest(r)
	if s == nil {
		http.Error(w, "not signed in", http.StatusUnauthorized)
		return nil
	}

	var scans []domain.ScanResult
	if err := json.NewDecoder(r.Body).Decode(&scans); err != nil {
		return appErrorf(err, "could not decode import payload: %v", err)
	}
	if err := s.AddBooks(r.Context(), scans); err != nil {
		return appErrorf(err, "could not import books: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
