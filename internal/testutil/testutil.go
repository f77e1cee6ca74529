package testutil

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"skiclub/internal/db"
	"skiclub/internal/seed"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The database is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenSeededDB is OpenInMemoryDB plus the demo club, with events dated
// relative to now.
func OpenSeededDB(t *testing.T, name string, now time.Time) (*sql.DB, *seed.Demo) {
	t.Helper()
	d := OpenInMemoryDB(t, name)
	demo, err := seed.Run(context.Background(), d, now)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return d, demo
}

// GenerateJWTHS256 returns a signed JWT string with the claims the app issues.
func GenerateJWTHS256(t *testing.T, secret string, userID int64, name, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"name": name,
		"role": role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
