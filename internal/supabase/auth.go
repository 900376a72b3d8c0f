package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.Identity = &Client{}

// SignInWithPassword exchanges email/password credentials for a
// session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var session domain.Session
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new account and returns its first session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/v1/signup", payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var session domain.Session
	if err := decodeJSON(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut invalidates the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// UserFromToken verifies an access token and returns the identity it
// belongs to.
func (c *Client) UserFromToken(ctx context.Context, token string) (*domain.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var user domain.User
	if err := decodeJSON(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account. Requires the service-role key.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/auth/v1/admin/users/"+userID, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}
