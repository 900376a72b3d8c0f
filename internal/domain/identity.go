package domain

import "context"

// User is the signed-in identity as reported by the identity service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential bundle returned by the identity service.
// It is replaced wholesale on login and logout, never merged.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// Identity is the session surface of the remote data service.
// DeleteUser is an administrative operation and only works on a client
// constructed with the service-role key.
type Identity interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UserFromToken(ctx context.Context, token string) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
}
