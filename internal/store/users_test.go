package store

import (
	"context"
	"testing"

	"github.com/erazemk/evidenca/internal/db"
	"github.com/erazemk/evidenca/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "hash", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "alice" || user.Role != model.RoleManager {
		t.Errorf("unexpected user: %+v", user)
	}

	byName, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName == nil || byName.ID != user.ID {
		t.Errorf("expected user %d, got %+v", user.ID, byName)
	}
}

func TestGetMissingUser(t *testing.T) {
	database := db.NewTestDB(t)

	user, err := GetUser(context.Background(), database, 99)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for missing user, got %+v", user)
	}
}

func TestUpdateUserRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleViewer)

	if err := UpdateUserRole(ctx, database, user.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	updated, _ := GetUser(ctx, database, user.ID)
	if updated.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", updated.Role)
	}
}

func TestDeleteUserSoftDeletes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleViewer)

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected no active users, got %d", len(users))
	}

	// Still visible by username for auth checks, but marked deleted.
	deleted, _ := GetUserByUsername(ctx, database, "alice")
	if deleted == nil || deleted.DeletedAt == nil {
		t.Errorf("expected soft-deleted user, got %+v", deleted)
	}

	// Username can be reused after soft delete.
	if _, err := CreateUser(ctx, database, "alice", "hash2", model.RoleViewer); err != nil {
		t.Errorf("expected username reuse after soft delete, got %v", err)
	}
}
