package datastore

import (
	"context"
	"fmt"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.Identity = &MemoryIdentity{}

type account struct {
	id       string
	email    string
	password string
}

// MemoryIdentity is an in-memory identity service. Accounts and access
// tokens are generated with uuids; SignOutErr and DeleteErr force
// failures.
type MemoryIdentity struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	sessions map[string]string // access token -> user id

	SignOutErr error
	DeleteErr  error
}

func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		byEmail:  make(map[string]*account),
		sessions: make(map[string]string),
	}
}

func (m *MemoryIdentity) SignInWithPassword(_ context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byEmail[email]
	if !ok || acct.password != password {
		return nil, fmt.Errorf("memoryidentity: invalid login credentials")
	}
	return m.newSessionLocked(acct), nil
}

func (m *MemoryIdentity) SignUp(_ context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[email]; exists {
		return nil, fmt.Errorf("memoryidentity: user already registered")
	}
	acct := &account{
		id:       uuid.Must(uuid.NewV4()).String(),
		email:    email,
		password: password,
	}
	m.byEmail[email] = acct
	return m.newSessionLocked(acct), nil
}

func (m *MemoryIdentity) newSessionLocked(acct *account) *domain.Session {
	token := uuid.Must(uuid.NewV4()).String()
	m.sessions[token] = acct.id
	return &domain.Session{
		AccessToken:  token,
		RefreshToken: uuid.Must(uuid.NewV4()).String(),
		ExpiresIn:    3600,
		User:         &domain.User{ID: acct.id, Email: acct.email},
	}
}

func (m *MemoryIdentity) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SignOutErr != nil {
		return m.SignOutErr
	}
	delete(m.sessions, accessToken)
	return nil
}

func (m *MemoryIdentity) UserFromToken(_ context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("memoryidentity: invalid session token")
	}
	for _, acct := range m.byEmail {
		if acct.id == userID {
			return &domain.User{ID: acct.id, Email: acct.email}, nil
		}
	}
	return nil, fmt.Errorf("memoryidentity: no account for token")
}

func (m *MemoryIdentity) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	for email, acct := range m.byEmail {
		if acct.id == userID {
			delete(m.byEmail, email)
			for token, id := range m.sessions {
				if id == userID {
					delete(m.sessions, token)
				}
			}
			return nil
		}
	}
	return fmt.Errorf("memoryidentity: no user with id %s", userID)
}
