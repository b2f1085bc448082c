package service

import (
	"context"
	"testing"
	"time"

	"watchparty/internal/db"
	"watchparty/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("host=localhost user=postgres password=postgres dbname=watchparty port=5432 sslmode=disable TimeZone=UTC")
	if err != nil {
		t.Skipf("skip: db not available: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Skipf("skip: migrate failed: %v", err)
	}
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB) models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := models.User{
		Username:     "u_" + suffix,
		Email:        "u_" + suffix + "@test.local",
		PasswordHash: "x",
		DisplayName:  "User " + suffix,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&models.User{}, "id = ?", u.ID) })
	return u
}

func TestCoreStore_DirectMessageRoundTrip(t *testing.T) {
	gdb := testDB(t)
	store := NewCoreStore(gdb)
	ctx := context.Background()

	alice := createUser(t, gdb)
	bob := createUser(t, gdb)
	t.Cleanup(func() {
		gdb.Delete(&models.DirectMessage{}, "from_id IN ? OR to_id IN ?", []string{alice.ID, bob.ID}, []string{alice.ID, bob.ID})
	})

	first, err := store.SaveDirectMessage(ctx, alice.ID, bob.ID, "hi bob")
	if err != nil {
		t.Fatalf("SaveDirectMessage() error = %v", err)
	}
	if first.ID == "" || first.Read {
		t.Errorf("stored message = %+v, want generated id and read=false", first)
	}
	time.Sleep(10 * time.Millisecond) // distinct created_at for deterministic ordering
	if _, err := store.SaveDirectMessage(ctx, bob.ID, alice.ID, "hi alice"); err != nil {
		t.Fatalf("SaveDirectMessage() error = %v", err)
	}

	// History is shared between both directions and comes back ascending.
	msgs, err := store.ListDirectMessages(ctx, bob.ID, alice.ID, 50)
	if err != nil {
		t.Fatalf("ListDirectMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Text != "hi bob" || msgs[1].Text != "hi alice" {
		t.Errorf("history order = [%q, %q], want chronological", msgs[0].Text, msgs[1].Text)
	}
	if msgs[0].Read {
		t.Error("unread message listed as read")
	}

	if err := store.MarkMessagesRead(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("MarkMessagesRead() error = %v", err)
	}
	msgs, err = store.ListDirectMessages(ctx, bob.ID, alice.ID, 50)
	if err != nil {
		t.Fatalf("ListDirectMessages() error = %v", err)
	}
	for _, m := range msgs {
		if m.From == alice.ID && !m.Read {
			t.Errorf("message %q still unread after MarkMessagesRead", m.Text)
		}
		if m.From == bob.ID && m.Read {
			t.Errorf("reader's own outgoing message %q was marked read", m.Text)
		}
	}
}

func TestCoreStore_SenderProfile(t *testing.T) {
	gdb := testDB(t)
	store := NewCoreStore(gdb)

	u := createUser(t, gdb)
	peer, err := store.SenderProfile(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("SenderProfile() error = %v", err)
	}
	if peer.ID != u.ID || peer.Username != u.Username {
		t.Errorf("SenderProfile() = %+v, want %s/%s", peer, u.ID, u.Username)
	}

	if _, err := store.SenderProfile(context.Background(), "missing"); err == nil {
		t.Error("SenderProfile() for unknown user succeeded, want error")
	}
}

func TestCoreStore_SetUserOnline(t *testing.T) {
	gdb := testDB(t)
	store := NewCoreStore(gdb)
	ctx := context.Background()

	u := createUser(t, gdb)
	if err := store.SetUserOnline(ctx, u.ID, true); err != nil {
		t.Fatalf("SetUserOnline() error = %v", err)
	}
	var got models.User
	if err := gdb.First(&got, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !got.IsOnline {
		t.Error("IsOnline = false after SetUserOnline(true)")
	}

	if err := store.SetUserOnline(ctx, u.ID, false); err != nil {
		t.Fatalf("SetUserOnline() error = %v", err)
	}
	if err := gdb.First(&got, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.IsOnline {
		t.Error("IsOnline = true after SetUserOnline(false)")
	}
}
