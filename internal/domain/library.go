package domain

import (
	"context"
	"io"
)

// LibraryDatabase is the row surface of the remote data service: the
// books and user_names collections, queried by equality on user_id or
// id. Update and delete report the backend's response status so
// callers can distinguish a 204 No Content success from anything else.
type LibraryDatabase interface {
	ListBooksByUser(ctx context.Context, userID string) ([]Book, error)
	GetUserName(ctx context.Context, userID string) (string, error)
	InsertUserName(ctx context.Context, userID, name string) error
	InsertBooks(ctx context.Context, books []BookInsert) error
	UpdateBook(ctx context.Context, id int64, fields BookUpdate) (status int, err error)
	DeleteBook(ctx context.Context, id int64) (status int, err error)
}

// CoverStore is the object-storage surface: binary cover uploads and
// public URL resolution.
type CoverStore interface {
	UploadCover(ctx context.Context, path, contentType string, content io.Reader) error
	PublicCoverURL(path string) string
}
