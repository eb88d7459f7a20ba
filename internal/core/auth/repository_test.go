package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/theunits/units/internal/testhelpers"
)

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(testhelpers.NewTestClient(t))
	ctx := context.Background()

	user := &User{ID: uuid.New(), Username: "resident"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil || byID == nil || byID.Username != "resident" {
		t.Fatalf("GetUserByID = %+v, %v", byID, err)
	}

	byName, err := repo.GetUserByUsername(ctx, "resident")
	if err != nil || byName == nil || byName.ID != user.ID {
		t.Fatalf("GetUserByUsername = %+v, %v", byName, err)
	}
}

func TestRepository_MissingUserIsNil(t *testing.T) {
	repo := NewRepository(testhelpers.NewTestClient(t))

	user, err := repo.GetUserByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestRepository_DuplicateUsername(t *testing.T) {
	repo := NewRepository(testhelpers.NewTestClient(t))
	ctx := context.Background()

	if err := repo.CreateUser(ctx, &User{ID: uuid.New(), Username: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, &User{ID: uuid.New(), Username: "dup"}); err == nil {
		t.Error("expected unique violation")
	}
}
