package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func TestAuthService_PasswordRoundTrip(t *testing.T) {
	svc := NewAuthService(&fakeDB{}, newFakeKV())

	hash, err := svc.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.VerifyPassword(hash, "correct horse battery staple") {
		t.Fatal("expected password to verify")
	}
	if svc.VerifyPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestAuthService_HashPassword_TooLong(t *testing.T) {
	svc := NewAuthService(&fakeDB{}, newFakeKV())

	_, err := svc.HashPassword(strings.Repeat("x", 100))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestAuthService_GenerateToken(t *testing.T) {
	svc := NewAuthService(&fakeDB{}, newFakeKV())

	token, hash, err := svc.GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}
	if hash == token {
		t.Fatal("expected stored hash to differ from token")
	}
	if svc.hashToken(token) != hash {
		t.Fatal("expected hash to be deterministic")
	}
}

func TestAuthService_CreateSession_StoresRowAndCache(t *testing.T) {
	userID := uuid.New()
	kv := newFakeKV()
	var insertArgs []any
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO sessions") {
				t.Fatalf("unexpected exec: %s", sql)
			}
			insertArgs = args
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}

	svc := NewAuthService(db, kv)
	token, err := svc.CreateSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokenHash := svc.hashToken(token)
	if insertArgs[1] != tokenHash {
		t.Fatal("expected hashed token in sessions row")
	}
	if kv.data["session:"+tokenHash] != userID.String() {
		t.Fatal("expected session to be cached under hashed token")
	}
}

func TestAuthService_CreateSession_CacheFailureTolerated(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("redis down")
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}

	svc := NewAuthService(db, kv)
	if _, err := svc.CreateSession(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected session creation to survive cache failure, got %v", err)
	}
}

func TestAuthService_ValidateSession_CacheHit(t *testing.T) {
	userID := uuid.New()
	kv := newFakeKV()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if !strings.Contains(sql, "FROM users") {
				t.Fatalf("cache hit should only load the user, got %s", sql)
			}
			return rowFromValues(userRowValues(userID, "alice@example.com")...)
		},
	}

	svc := NewAuthService(db, kv)
	token, hash, err := svc.GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kv.data["session:"+hash] = userID.String()

	user, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != userID {
		t.Fatalf("unexpected user: %+v", user)
	}
	if kv.expires["session:"+hash] == 0 {
		t.Fatal("expected cache TTL refresh")
	}
}

func TestAuthService_ValidateSession_PostgresFallback(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	kv := newFakeKV()
	call := 0
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			call++
			if call == 1 {
				if !strings.Contains(sql, "FROM sessions") {
					t.Fatalf("expected session lookup, got %s", sql)
				}
				return rowFromValues(sessionID, userID, "hash", time.Now().Add(time.Hour), time.Now())
			}
			return rowFromValues(userRowValues(userID, "alice@example.com")...)
		},
	}

	svc := NewAuthService(db, kv)
	user, err := svc.ValidateSession(context.Background(), "sometoken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != userID {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	kv := newFakeKV()
	deleted := false
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(uuid.New(), uuid.New(), "hash", time.Now().Add(-time.Hour), time.Now())
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			deleted = true
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}

	svc := NewAuthService(db, kv)
	_, err := svc.ValidateSession(context.Background(), "sometoken")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !deleted {
		t.Fatal("expected expired session cleanup")
	}
}

func TestAuthService_ValidateSession_NotFound(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowWithError(pgx.ErrNoRows)
		},
	}

	svc := NewAuthService(db, newFakeKV())
	_, err := svc.ValidateSession(context.Background(), "sometoken")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_ValidateSession_InactiveUser(t *testing.T) {
	userID := uuid.New()
	kv := newFakeKV()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(userID, "alice@example.com", "hash", "Alice", "Able", false, false, false, nil, time.Now())
		},
	}

	svc := NewAuthService(db, kv)
	token, hash, err := svc.GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kv.data["session:"+hash] = userID.String()

	_, err = svc.ValidateSession(context.Background(), token)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for inactive user, got %v", err)
	}
}

func TestAuthService_DeleteAllUserSessions(t *testing.T) {
	userID := uuid.New()
	kv := newFakeKV()
	kv.data["session:h1"] = userID.String()
	kv.data["session:h2"] = userID.String()

	var execSQL string
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{rows: [][]any{{"h1"}, {"h2"}}}, nil
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			execSQL = sql
			return fakeCommandTag{rowsAffected: 2}, nil
		},
	}

	svc := NewAuthService(db, kv)
	if err := svc.DeleteAllUserSessions(context.Background(), userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kv.deleted) != 2 {
		t.Fatalf("expected 2 cache deletions, got %d", len(kv.deleted))
	}
	if !strings.Contains(execSQL, "DELETE FROM sessions WHERE user_id") {
		t.Fatalf("expected bulk session delete, got %s", execSQL)
	}
}
