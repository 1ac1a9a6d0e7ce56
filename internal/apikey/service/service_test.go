package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/domain"
	apikeyrepo "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/repository"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/cache"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&apikeydomain.APIKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec("DELETE FROM api_keys").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:     db,
		log:    zap.NewNop(),
		genID:  node,
		clock:  clock.Fixed(time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)),
		repo:   apikeyrepo.Provide(),
		lookup: cache.NewTTLCache[string, apikeydomain.APIKey](),
	}
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plaintext, created, err := svc.Create(ctx, "integration", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if plaintext == "" {
		t.Fatal("expected plaintext credential")
	}

	key, err := svc.Authenticate(ctx, plaintext)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if key.ID != created.ID {
		t.Fatalf("resolved wrong key: %v", key.ID)
	}

	// Second authenticate hits the lookup cache.
	if _, err := svc.Authenticate(ctx, plaintext); err != nil {
		t.Fatalf("cached authenticate: %v", err)
	}
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plaintext, _, err := svc.Create(ctx, "victim", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	keyID, _, err := apikeydomain.ParseKey(plaintext)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	forged := "chk_" + keyID + ".not-the-secret"
	if _, err := svc.Authenticate(ctx, forged); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAuthenticateRejectsMalformedKey(t *testing.T) {
	svc := newTestService(t)

	for _, input := range []string{"", "chk_", "chk_missingdot", "wrongprefix_ab.cd"} {
		if _, err := svc.Authenticate(context.Background(), input); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("input %q: expected ErrInvalidKey, got %v", input, err)
		}
	}
}

func TestRevokedKeyStopsAuthenticating(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plaintext, created, err := svc.Create(ctx, "short-lived", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := svc.Authenticate(ctx, plaintext); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked, got %v", err)
	}
}

func TestExpiredKeyStopsAuthenticating(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	expired := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	plaintext, _, err := svc.Create(ctx, "expired", &expired)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Authenticate(ctx, plaintext); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked, got %v", err)
	}
}
