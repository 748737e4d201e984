package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/contactman/internal/model"
)

type mockUserRepository struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
	createFn   func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

// 存在するユーザーはそのまま返ること
func TestGetByID_Found(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com", Name: "Taro"}, nil
		},
	}
	svc := NewService(repo)

	u, err := svc.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 42 {
		t.Errorf("u.ID = %d, want 42", u.ID)
	}
	if u.Email != "taro@example.com" {
		t.Errorf("u.Email = %q, want %q", u.Email, "taro@example.com")
	}
}

// 存在しないユーザーはUSER_NOT_FOUNDエラーになること
func TestGetByID_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepository{})

	_, err := svc.GetByID(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error for unknown user")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

// リポジトリのエラーはラップして返ること
func TestGetByID_RepositoryError(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(repo)

	if _, err := svc.GetByID(context.Background(), 1); err == nil {
		t.Fatal("expected error when repository fails")
	}
}
