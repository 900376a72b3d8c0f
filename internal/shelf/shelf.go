// Package shelf holds the per-session library state: the signed-in
// user, their session, and the full book collection, with derived
// projections computed fresh on every read and mutations that keep
// local state aligned with the remote store.
package shelf

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stephankoppes/book-nest/internal/domain"
)

// maxShelfBooks caps every dashboard projection.
const maxShelfBooks = 9

// Params carries everything a Shelf needs for one browsing session.
type Params struct {
	Session  *domain.Session
	DB       domain.LibraryDatabase
	Covers   domain.CoverStore
	Identity domain.Identity
	User     *domain.User
}

// Shelf is the library state for one signed-in user. All fields are
// replaced wholesale, never merged. Reads of the collection are served
// from the local copy; mutations go to the remote store first and the
// local copy follows only on success.
type Shelf struct {
	mu       sync.Mutex
	session  *domain.Session
	db       domain.LibraryDatabase
	covers   domain.CoverStore
	identity domain.Identity
	user     *domain.User
	books    []domain.Book
	userName string
	subs     []func()
}

// New constructs a Shelf and kicks off the initial refresh in the
// background.
func New(p Params) *Shelf {
	s := &Shelf{}
	s.UpdateState(p)
	return s
}

// UpdateState replaces session, clients, and user unconditionally,
// then triggers an asynchronous refresh. Overlapping refreshes are not
// guarded against; the last one to finish wins.
func (s *Shelf) UpdateState(p Params) {
	s.mu.Lock()
	s.session = p.Session
	s.db = p.DB
	s.covers = p.Covers
	s.identity = p.Identity
	s.user = p.User
	s.mu.Unlock()
	s.notify()

	go s.Refresh(context.Background())
}

// Refresh reloads the book collection and the display name with two
// concurrent reads. Both must succeed or the whole refresh is
// abandoned and prior state is left untouched; read failures are
// logged, never surfaced.
func (s *Shelf) Refresh(ctx context.Context) {
	s.mu.Lock()
	db, user := s.db, s.user
	s.mu.Unlock()
	if db == nil || user == nil {
		return
	}

	var (
		books []domain.Book
		name  string
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = db.ListBooksByUser(ctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		name, err = db.GetUserName(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("shelf: abandoning refresh for user %s: %v", user.ID, err)
		return
	}

	s.mu.Lock()
	s.books = books
	s.userName = name
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers an observer invoked after every state
// replacement or locally applied mutation.
func (s *Shelf) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Shelf) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Authenticated reports whether a session and user are present.
func (s *Shelf) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.user != nil
}

// Session returns the current session, or nil when signed out.
func (s *Shelf) Session() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// User returns the current user, or nil when signed out.
func (s *Shelf) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// UserName returns the display name loaded by the last successful
// refresh.
func (s *Shelf) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

// Books returns a copy of the full collection.
func (s *Shelf) Books() []domain.Book {
	return s.snapshot()
}

func (s *Shelf) snapshot() []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	books := make([]domain.Book, len(s.books))
	copy(books, s.books)
	return books
}

// CurrentlyReading returns books started but not finished, most
// recently started first.
func (s *Shelf) CurrentlyReading() []domain.Book {
	var out []domain.Book
	for _, b := range s.snapshot() {
		if b.StartedReadingOn != nil && b.FinishedReadingOn == nil {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].StartedReadingOn > *out[j].StartedReadingOn
	})
	return capBooks(out)
}

// HighestRated returns rated books, best first. A zero rating counts
// as unrated.
func (s *Shelf) HighestRated() []domain.Book {
	var out []domain.Book
	for _, b := range s.snapshot() {
		if b.Rating != nil && *b.Rating != 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Rating > *out[j].Rating
	})
	return capBooks(out)
}

// Unread returns books never started, most recently added first.
func (s *Shelf) Unread() []domain.Book {
	var out []domain.Book
	for _, b := range s.snapshot() {
		if b.StartedReadingOn == nil {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return capBooks(out)
}

func capBooks(books []domain.Book) []domain.Book {
	if len(books) > maxShelfBooks {
		return books[:maxShelfBooks]
	}
	return books
}

// FavoriteGenre tallies comma-separated genre tags across the whole
// collection and returns the most common one. Ties go to the tag seen
// first; an empty collection yields "".
func (s *Shelf) FavoriteGenre() string {
	books := s.snapshot()
	if len(books) == 0 {
		return ""
	}

	counts := make(map[string]int)
	var order []string
	for _, b := range books {
		if b.Genre == nil {
			continue
		}
		for _, genre := range strings.Split(*b.Genre, ",") {
			genre = strings.TrimSpace(genre)
			if genre == "" {
				continue
			}
			if _, seen := counts[genre]; !seen {
				order = append(order, genre)
			}
			counts[genre]++
		}
	}

	favorite := ""
	best := 0
	for _, genre := range order {
		if counts[genre] > best {
			favorite = genre
			best = counts[genre]
		}
	}
	return favorite
}

// Book looks up one book by id with a linear scan.
func (s *Shelf) Book(id int64) (domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

// AddBooks maps scan results to insert records tagged with the current
// user and submits them as one bulk insert. On success the collection
// is re-read and replaced; the display name is deliberately not
// re-fetched.
func (s *Shelf) AddBooks(ctx context.Context, scans []domain.ScanResult) error {
	s.mu.Lock()
	db, user := s.db, s.user
	s.mu.Unlock()
	if db == nil || user == nil {
		return nil
	}

	inserts := make([]domain.BookInsert, 0, len(scans))
	for _, scan := range scans {
		inserts = append(inserts, domain.BookInsert{
			Title:  scan.BookTitle,
			Author: scan.Author,
			UserID: user.ID,
		})
	}
	if err := db.InsertBooks(ctx, inserts); err != nil {
		return fmt.Errorf("add books to library: %w", err)
	}

	books, err := db.ListBooksByUser(ctx, user.ID)
	if err != nil {
		log.Printf("shelf: could not re-read books for user %s: %v", user.ID, err)
		return nil
	}
	s.mu.Lock()
	s.books = books
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateBook submits a partial update for one book. Local state is
// touched only when the backend reports 204 No Content; any other
// outcome is logged and swallowed, leaving local state as it was.
func (s *Shelf) UpdateBook(ctx context.Context, id int64, fields domain.BookUpdate) {
	s.mu.Lock()
	db, user := s.db, s.user
	s.mu.Unlock()
	if db == nil || user == nil {
		return
	}

	status, err := db.UpdateBook(ctx, id, fields)
	if err != nil || status != http.StatusNoContent {
		log.Printf("shelf: update of book %d not applied (status %d): %v", id, status, err)
		return
	}

	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID == id {
			applyUpdate(&s.books[i], fields)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

func applyUpdate(b *domain.Book, fields domain.BookUpdate) {
	if fields.Title != nil {
		b.Title = *fields.Title
	}
	if fields.Author != nil {
		b.Author = fields.Author
	}
	if fields.Genre != nil {
		b.Genre = fields.Genre
	}
	if fields.Description != nil {
		b.Description = fields.Description
	}
	if fields.CoverImage != nil {
		b.CoverImage = fields.CoverImage
	}
	if fields.Rating != nil {
		b.Rating = fields.Rating
	}
	if fields.StartedReadingOn != nil {
		b.StartedReadingOn = fields.StartedReadingOn
	}
	if fields.FinishedReadingOn != nil {
		b.FinishedReadingOn = fields.FinishedReadingOn
	}
}

// UploadCover stores cover content under a path derived from the user
// id, the current time, and the original filename, then records the
// public URL on the book via a partial update. Upload failures are
// logged and the book row is left alone.
func (s *Shelf) UploadCover(ctx context.Context, id int64, filename, contentType string, content io.Reader) {
	s.mu.Lock()
	covers, user := s.covers, s.user
	s.mu.Unlock()
	if covers == nil || user == nil {
		return
	}

	path := fmt.Sprintf("%s/%d_%s", user.ID, time.Now().UnixMilli(), filename)
	if err := covers.UploadCover(ctx, path, contentType, content); err != nil {
		log.Printf("shelf: could not upload cover for book %d: %v", id, err)
		return
	}

	coverURL := covers.PublicCoverURL(path)
	s.UpdateBook(ctx, id, domain.BookUpdate{CoverImage: &coverURL})
}

// DeleteBook removes one book remotely, mirroring the removal locally
// only when the backend reports 204 No Content.
func (s *Shelf) DeleteBook(ctx context.Context, id int64) {
	s.mu.Lock()
	db, user := s.db, s.user
	s.mu.Unlock()
	if db == nil || user == nil {
		return
	}

	status, err := db.DeleteBook(ctx, id)
	if err != nil || status != http.StatusNoContent {
		log.Printf("shelf: delete of book %d not applied (status %d): %v", id, status, err)
		return
	}

	s.mu.Lock()
	books := s.books[:0]
	for _, b := range s.books {
		if b.ID != id {
			books = append(books, b)
		}
	}
	s.books = books
	s.mu.Unlock()
	s.notify()
}

// Logout invalidates the remote session. Local collection and name are
// intentionally not cleared; callers own the navigation back to the
// login page.
func (s *Shelf) Logout(ctx context.Context) {
	s.mu.Lock()
	identity, session := s.identity, s.session
	s.mu.Unlock()
	if identity == nil || session == nil {
		return
	}
	if err := identity.SignOut(ctx, session.AccessToken); err != nil {
		log.Printf("shelf: sign out failed: %v", err)
	}
}
