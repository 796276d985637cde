package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "Sup3rSecret"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", RoleName: RoleAdmin, SessionID: "s1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.RoleName != RoleAdmin || claims.SessionID != "s1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") || HashToken("abc") == HashToken("abd") {
		t.Fatal("expected deterministic distinct hashes")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected hex sha256, got %q", HashToken("abc"))
	}
}

func TestStaticPermissions(t *testing.T) {
	perms := StaticPermissions{}
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleSuperAdmin, PermEvaluationsDelete, true},
		{RoleSuperAdmin, PermAuditRead, true},
		{RoleAdmin, PermEvaluationsGrade, true},
		{RoleAdmin, PermEvaluationsDelete, false},
		{RoleLearner, PermEvaluationsRead, false},
		{"unknown", PermEvaluationsRead, false},
	}
	for _, tc := range tests {
		got, err := perms.HasPermission(context.Background(), tc.role, tc.perm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, got)
		}
	}
}

type fakeStore struct {
	user     AuthUser
	sessions map[string]bool
	revoked  []string
}

func (f *fakeStore) FindActiveUserByEmail(_ context.Context, email string) (AuthUser, error) {
	if email != f.user.Email {
		return AuthUser{}, ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeStore) CreateSession(_ context.Context, userID, tokenHash string, _ time.Time) error {
	f.sessions[userID+":"+tokenHash] = true
	return nil
}

func (f *fakeStore) UpdateLastLogin(context.Context, string) error { return nil }

func (f *fakeStore) RevokeSession(_ context.Context, userID, tokenHash string) error {
	delete(f.sessions, userID+":"+tokenHash)
	f.revoked = append(f.revoked, tokenHash)
	return nil
}

func (f *fakeStore) SessionValid(_ context.Context, userID, tokenHash string) (bool, error) {
	return f.sessions[userID+":"+tokenHash], nil
}

func TestLoginAndLogout(t *testing.T) {
	hash, _ := HashPassword("Passw0rd!")
	store := &fakeStore{user: AuthUser{ID: "u1", Email: "admin@example.com", RoleName: RoleSuperAdmin, Password: hash}, sessions: map[string]bool{}}
	svc := NewService(store, "secret", time.Hour)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected unknown user to look like bad credentials, got %v", err)
	}

	result, err := svc.Login(ctx, " admin@example.com ", "Passw0rd!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := ParseToken("secret", result.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	active, _ := svc.SessionActive(ctx, claims.UserID, claims.SessionID)
	if !active {
		t.Fatal("expected session to be active after login")
	}

	if err := svc.Logout(ctx, UserContext{UserID: claims.UserID, SessionID: claims.SessionID}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	active, _ = svc.SessionActive(ctx, claims.UserID, claims.SessionID)
	if active {
		t.Fatal("expected session to be revoked after logout")
	}
}
