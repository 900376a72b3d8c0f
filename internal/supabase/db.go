package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.LibraryDatabase = &Client{}

// ListBooksByUser fetches every book row owned by the user.
func (c *Client) ListBooksByUser(ctx context.Context, userID string) ([]domain.Book, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/books?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var books []domain.Book
	if err := decodeJSON(resp, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetUserName fetches the user's display name. The single-object
// Accept header makes PostgREST fail the request unless exactly one
// row matches.
func (c *Client) GetUserName(ctx context.Context, userID string) (string, error) {
	params := url.Values{}
	params.Set("select", "name")
	params.Set("user_id", "eq."+userID)

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/user_names?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get user name: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	var row struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(resp, &row); err != nil {
		return "", err
	}
	return row.Name, nil
}

// InsertUserName creates the display-name row for a new account.
func (c *Client) InsertUserName(ctx context.Context, userID, name string) error {
	payload := []map[string]string{{"user_id": userID, "name": name}}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/rest/v1/user_names", payload)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert user name: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	return nil
}

// InsertBooks submits new book rows as one bulk insert.
func (c *Client) InsertBooks(ctx context.Context, books []domain.BookInsert) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/rest/v1/books", books)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	return nil
}

// UpdateBook submits a partial update for one book. The response
// status is reported so callers can require a 204 before touching
// local state.
func (c *Client) UpdateBook(ctx context.Context, id int64, fields domain.BookUpdate) (int, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch, fmt.Sprintf("/rest/v1/books?id=eq.%d", id), fields)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("update book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, apiError(resp)
	}
	return resp.StatusCode, nil
}

// DeleteBook removes one book row by id.
func (c *Client) DeleteBook(ctx context.Context, id int64) (int, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/rest/v1/books?id=eq.%d", id), http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, apiError(resp)
	}
	return resp.StatusCode, nil
}
