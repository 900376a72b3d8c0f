package domain

// Book is one row of the books collection. Nullable columns map to
// pointers; date columns arrive as ISO-8601 strings from the backend
// (created_at as a full timestamp, the reading dates as plain dates),
// so lexicographic order is chronological order.
type Book struct {
	ID                int64   `json:"id"`
	UserID            string  `json:"user_id"`
	Title             string  `json:"title"`
	Author            *string `json:"author"`
	Genre             *string `json:"genre"`
	Description       *string `json:"description"`
	CoverImage        *string `json:"cover_image"`
	Rating            *int    `json:"rating"`
	CreatedAt         string  `json:"created_at"`
	StartedReadingOn  *string `json:"started_reading_on"`
	FinishedReadingOn *string `json:"finished_reading_on"`
}

// BookInsert is the record submitted for a new book. The backend
// assigns id and created_at.
type BookInsert struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	UserID string `json:"user_id"`
}

// BookUpdate is a partial-field update for one book. Only non-nil
// fields are submitted.
type BookUpdate struct {
	Title             *string `json:"title,omitempty"`
	Author            *string `json:"author,omitempty"`
	Genre             *string `json:"genre,omitempty"`
	Description       *string `json:"description,omitempty"`
	CoverImage        *string `json:"cover_image,omitempty"`
	Rating            *int    `json:"rating,omitempty"`
	StartedReadingOn  *string `json:"started_reading_on,omitempty"`
	FinishedReadingOn *string `json:"finished_reading_on,omitempty"`
}

// ScanResult is one recognized book from the shelf-scan flow.
type ScanResult struct {
	BookTitle string `json:"bookTitle"`
	Author    string `json:"author"`
}
