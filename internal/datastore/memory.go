// Package datastore provides in-memory implementations of the domain
// interfaces. They back the local development mode and give tests a
// backend with injectable failures.
package datastore

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.LibraryDatabase = &MemoryDB{}

// MemoryDB holds book and display-name rows in maps. The exported
// knobs force the next matching call to fail or to report a chosen
// status, so callers' silent-failure paths can be exercised.
type MemoryDB struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]*domain.Book
	names  map[string]string

	ListErr      error
	NameErr      error
	InsertErr    error
	UpdateErr    error
	DeleteErr    error
	UpdateStatus int
	DeleteStatus int

	// LastInsert records the most recent InsertBooks payload.
	LastInsert []domain.BookInsert
}

// NewMemoryDB returns an empty MemoryDB reporting 204 for updates and
// deletes.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		nextID:       1,
		books:        make(map[int64]*domain.Book),
		names:        make(map[string]string),
		UpdateStatus: http.StatusNoContent,
		DeleteStatus: http.StatusNoContent,
	}
}

func (m *MemoryDB) ListBooksByUser(_ context.Context, userID string) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var books []domain.Book
	for _, b := range m.books {
		if b.UserID == userID {
			books = append(books, *b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (m *MemoryDB) GetUserName(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NameErr != nil {
		return "", m.NameErr
	}

	name, ok := m.names[userID]
	if !ok {
		return "", fmt.Errorf("memorydb: no name row for user %s", userID)
	}
	return name, nil
}

func (m *MemoryDB) InsertUserName(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[userID] = name
	return nil
}

func (m *MemoryDB) InsertBooks(_ context.Context, books []domain.BookInsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.LastInsert = books

	for _, insert := range books {
		author := insert.Author
		b := &domain.Book{
			ID:        m.nextID,
			UserID:    insert.UserID,
			Title:     insert.Title,
			Author:    &author,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		m.books[b.ID] = b
		m.nextID++
	}
	return nil
}

func (m *MemoryDB) UpdateBook(_ context.Context, id int64, fields domain.BookUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateStatus, m.UpdateErr
	}
	if m.UpdateStatus != http.StatusNoContent {
		return m.UpdateStatus, nil
	}

	b, ok := m.books[id]
	if !ok {
		// PostgREST reports success for an empty match.
		return http.StatusNoContent, nil
	}
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
	return http.StatusNoContent, nil
}

func (m *MemoryDB) DeleteBook(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteStatus, m.DeleteErr
	}
	if m.DeleteStatus != http.StatusNoContent {
		return m.DeleteStatus, nil
	}

	delete(m.books, id)
	return http.StatusNoContent, nil
}

// Seed inserts a fully specified book row, assigning the next id when
// the row has none. Intended for tests and the development backend.
func (m *MemoryDB) Seed(b domain.Book) domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == 0 {
		b.ID = m.nextID
	}
	if b.ID >= m.nextID {
		m.nextID = b.ID + 1
	}
	stored := b
	m.books[b.ID] = &stored
	return b
}
