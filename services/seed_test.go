package services

import (
	"context"
	"testing"
	"time"

	"cafe-order/logger"
	"cafe-order/store"

	"golang.org/x/crypto/bcrypt"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	log := logger.Discard()
	auth := NewAuthService(st, "s", AuthOptions{BcryptCost: bcrypt.MinCost, Log: log})
	menu := NewMenuService(st, log)

	for i := 0; i < 2; i++ {
		if err := EnsureDefaultAdmin(ctx, auth, st, "admin", "admin123", log); err != nil {
			t.Fatalf("EnsureDefaultAdmin run %d: %v", i, err)
		}
		if err := SeedMenu(ctx, menu, st, log); err != nil {
			t.Fatalf("SeedMenu run %d: %v", i, err)
		}
	}
	n, _ := st.CountMenuItems(ctx)
	if n != len(sampleMenu) {
		t.Errorf("menu has %d items, want %d", n, len(sampleMenu))
	}
	if _, err := auth.Login(ctx, "admin", "admin123"); err != nil {
		t.Errorf("default admin cannot log in: %v", err)
	}
}

func TestEnsureDefaultAdminKeepsExistingPassword(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	log := logger.Discard()
	auth := NewAuthService(st, "s", AuthOptions{BcryptCost: bcrypt.MinCost, Log: log, Now: func() time.Time { return time.Now() }})
	if _, err := auth.CreateAdmin(ctx, "admin", "rahasia"); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDefaultAdmin(ctx, auth, st, "admin", "admin123", log); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.Login(ctx, "admin", "rahasia"); err != nil {
		t.Errorf("existing password replaced: %v", err)
	}
}
