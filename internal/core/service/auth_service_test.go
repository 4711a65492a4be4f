package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
	"github.com/taskbox/task-api/internal/token"
)

// --- In-memory stubs ---

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := *user
	clone.ID = r.nextID
	r.users[clone.ID] = &clone
	copied := clone
	return &copied, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, found := r.users[id]
	if !found {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) delete(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type stubRegistry struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*domain.AuthToken
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{rows: make(map[string]*domain.AuthToken)}
}

func (r *stubRegistry) Record(_ context.Context, userID int64, raw string, kind domain.TokenKind, now time.Time) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[raw]; exists {
		return nil, domain.ErrTokenExists
	}
	ttl := time.Hour
	if kind == domain.TokenKindRefresh {
		ttl = 30 * 24 * time.Hour
	}
	r.nextID++
	row := &domain.AuthToken{
		ID:        r.nextID,
		UserID:    userID,
		Token:     raw,
		Kind:      kind,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rows[raw] = row
	clone := *row
	return &clone, nil
}

func (r *stubRegistry) RevokeAll(_ context.Context, userID int64, kind domain.TokenKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == userID && (kind == "" || row.Kind == kind) {
			row.IsRevoked = true
		}
	}
	return nil
}

func (r *stubRegistry) RevokeOne(_ context.Context, raw string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, found := r.rows[raw]
	if !found {
		return false, nil
	}
	row.IsRevoked = true
	return true, nil
}

func (r *stubRegistry) FindValid(_ context.Context, raw string, now time.Time) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, found := r.rows[raw]
	if !found || !row.IsValid(now) {
		return nil, nil
	}
	clone := *row
	return &clone, nil
}

func (r *stubRegistry) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for raw, row := range r.rows {
		if row.IsRevoked || !now.Before(row.ExpiresAt) {
			delete(r.rows, raw)
			deleted++
		}
	}
	return deleted, nil
}

func (r *stubRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func newTestService() (*AuthService, *stubUserRepo, *stubRegistry, *token.Codec) {
	users := newStubUserRepo()
	registry := newStubRegistry()
	codec := token.NewCodec(token.Config{
		Secret:   "test-secret",
		Issuer:   "http://localhost",
		Audience: "http://localhost",
	})
	svc := NewAuthService(users, registry, codec, zerolog.Nop())
	return svc, users, registry, codec
}

func register(t *testing.T, svc *AuthService) *ports.AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@x.com",
		Password: "pw12345678",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return result
}

// --- Register ---

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, registry, codec := newTestService()

	result := register(t, svc)

	if result.User == nil || result.User.ID == 0 {
		t.Fatalf("expected created user with id, got %+v", result.User)
	}
	if result.User.PasswordHash == "pw12345678" {
		t.Fatalf("password stored unhashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("pw12345678")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	// Both tokens verify and carry the right kinds.
	accessClaims, err := codec.Verify(result.AccessToken)
	if err != nil || accessClaims.TokenKind() != domain.TokenKindAccess {
		t.Fatalf("access token invalid: %v", err)
	}
	refreshClaims, err := codec.Verify(result.RefreshToken)
	if err != nil || refreshClaims.TokenKind() != domain.TokenKindRefresh {
		t.Fatalf("refresh token invalid: %v", err)
	}

	// Both tokens are recorded server-side.
	now := time.Now().UTC()
	for _, raw := range []string{result.AccessToken, result.RefreshToken} {
		row, err := registry.FindValid(context.Background(), raw, now)
		if err != nil || row == nil {
			t.Fatalf("issued token not recorded in registry")
		}
		if row.UserID != result.User.ID {
			t.Fatalf("registry row owned by %d, want %d", row.UserID, result.User.ID)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestService()

	register(t, svc)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice2",
		Name:     "Alice Again",
		Email:    "alice@x.com",
		Password: "pw12345678",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

// --- Login ---

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _, _ := newTestService()
	register(t, svc)

	result, err := svc.Login(context.Background(), "alice@x.com", "pw12345678")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
}

func TestAuthService_Login_UniformError(t *testing.T) {
	svc, _, _, _ := newTestService()
	register(t, svc)

	// Wrong password and unknown email must be indistinguishable.
	_, wrongPass := svc.Login(context.Background(), "alice@x.com", "wrongpassword")
	_, unknownEmail := svc.Login(context.Background(), "nobody@x.com", "pw12345678")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPass.Error() != unknownEmail.Error() {
		t.Fatalf("error messages differ: %q vs %q", wrongPass, unknownEmail)
	}
}

func TestAuthService_Login_DoesNotRevokePriorSessions(t *testing.T) {
	svc, _, registry, _ := newTestService()
	first := register(t, svc)

	second, err := svc.Login(context.Background(), "alice@x.com", "pw12345678")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	now := time.Now().UTC()
	for _, raw := range []string{first.AccessToken, first.RefreshToken, second.AccessToken, second.RefreshToken} {
		row, _ := registry.FindValid(context.Background(), raw, now)
		if row == nil {
			t.Fatalf("multi-device: all four tokens must stay valid")
		}
	}
}

// --- Logout ---

func TestAuthService_Logout_RevokesAllKinds(t *testing.T) {
	svc, _, registry, codec := newTestService()
	result := register(t, svc)

	if err := svc.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// The signed strings still verify cryptographically...
	if _, err := codec.Verify(result.AccessToken); err != nil {
		t.Fatalf("signature should still verify after revocation: %v", err)
	}

	// ...but the registry says no, for both kinds.
	now := time.Now().UTC()
	for _, raw := range []string{result.AccessToken, result.RefreshToken} {
		row, err := registry.FindValid(context.Background(), raw, now)
		if err != nil {
			t.Fatalf("find valid: %v", err)
		}
		if row != nil {
			t.Fatalf("token still valid after logout")
		}
	}
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	svc, _, _, _ := newTestService()
	result := register(t, svc)

	if err := svc.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := svc.Logout(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("second logout must also succeed: %v", err)
	}
}

func TestAuthService_Logout_UnverifiableTokenSucceeds(t *testing.T) {
	svc, _, _, _ := newTestService()

	if err := svc.Logout(context.Background(), "definitely-not-a-token"); err != nil {
		t.Fatalf("logout with garbage token must succeed: %v", err)
	}
}

// --- Refresh ---

func TestAuthService_Refresh_Success(t *testing.T) {
	svc, _, registry, codec := newTestService()
	result := register(t, svc)

	refreshed, err := svc.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	claims, err := codec.Verify(refreshed.AccessToken)
	if err != nil || claims.TokenKind() != domain.TokenKindAccess {
		t.Fatalf("refreshed token must be a valid access token: %v", err)
	}

	// The new access token is recorded; the refresh token survives unrotated.
	now := time.Now().UTC()
	if row, _ := registry.FindValid(context.Background(), refreshed.AccessToken, now); row == nil {
		t.Fatalf("new access token not recorded")
	}
	if row, _ := registry.FindValid(context.Background(), result.RefreshToken, now); row == nil {
		t.Fatalf("refresh token must remain valid")
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	svc, _, registry, _ := newTestService()
	result := register(t, svc)

	before := registry.count()
	_, err := svc.Refresh(context.Background(), result.AccessToken)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong kind, got %v", err)
	}
	if registry.count() != before {
		t.Fatalf("failed refresh must not record a token")
	}
}

func TestAuthService_Refresh_RejectsRevokedToken(t *testing.T) {
	svc, _, registry, _ := newTestService()
	result := register(t, svc)

	if err := registry.RevokeAll(context.Background(), result.User.ID, ""); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err := svc.Refresh(context.Background(), result.RefreshToken)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for revoked refresh token, got %v", err)
	}
}

func TestAuthService_Refresh_RejectsGoneUser(t *testing.T) {
	svc, users, _, _ := newTestService()
	result := register(t, svc)

	users.delete(result.User.ID)

	_, err := svc.Refresh(context.Background(), result.RefreshToken)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken when subject user is gone, got %v", err)
	}
}

func TestAuthService_Refresh_RejectsGarbage(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Refresh(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
