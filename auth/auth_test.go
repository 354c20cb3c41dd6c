package auth

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	godotenv.Load("../.env.test")
	PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestTokens() *Tokens {
	return NewTokens("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens()
	userID := uuid.NewString()

	signed, err := tokens.IssueAccess(userID)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.ParseAccess(signed)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %q, want %q", claims.UserID, userID)
	}

	if _, err := tokens.ParseRefresh(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("an access token must not pass as a refresh token, err = %v", err)
	}
}

func TestRefreshTokenCarriesID(t *testing.T) {
	tokens := newTestTokens()
	signed, jti, err := tokens.IssueRefresh("u-1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.ParseRefresh(signed)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID != jti {
		t.Errorf("jti = %q, want %q", claims.ID, jti)
	}
}

func TestRejectedTokens(t *testing.T) {
	tokens := newTestTokens()

	expired := newTestTokens()
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, _ := expired.IssueAccess("u-1")

	foreign, _ := NewTokens("other", "other", time.Hour, time.Hour).IssueAccess("u-1")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("access-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", stale},
		{"Wrong secret", foreign},
		{"Unsigned", none},
		{"Missing user", noUser},
		{"Garbage", "not.a.token"},
		{"Empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.ParseAccess(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Secret123" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword(hash, "Secret123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "secret123") {
		t.Error("wrong password accepted")
	}
}

func exerciseSessions(t *testing.T, s Sessions) {
	t.Helper()
	ctx := context.Background()
	user := uuid.NewString()
	a, b := uuid.NewString(), uuid.NewString()

	if err := s.Store(ctx, a, user, time.Minute); err != nil {
		t.Fatal(err)
	}
	s.Store(ctx, b, user, time.Minute)

	if ok, err := s.Revoke(ctx, a); err != nil || !ok {
		t.Fatalf("first revoke = %v, %v; want true", ok, err)
	}
	if ok, err := s.Revoke(ctx, a); err != nil || ok {
		t.Errorf("second revoke = %v, %v; want false", ok, err)
	}
	if ok, err := s.Revoke(ctx, uuid.NewString()); err != nil || ok {
		t.Errorf("revoking an unknown session = %v, %v", ok, err)
	}

	if err := s.RevokeAll(ctx, user); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Revoke(ctx, b); ok {
		t.Error("RevokeAll left a session behind")
	}

	c := uuid.NewString()
	s.Store(ctx, c, user, time.Minute)
	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := s.Revoke(ctx, c); err == nil && ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	if won.Load() != 1 {
		t.Errorf("concurrent revokes won %d times, want 1", won.Load())
	}
}

func TestMemorySessions(t *testing.T) {
	exerciseSessions(t, NewMemorySessions())

	s := NewMemorySessions()
	s.Store(context.Background(), "jti", "u", time.Minute)
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	if ok, _ := s.Revoke(context.Background(), "jti"); ok {
		t.Error("expired session still accepted")
	}
}

func TestRedisSessions(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	exerciseSessions(t, NewRedisSessions(client))
}
