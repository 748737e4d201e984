package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/contactman/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	getByIDFn func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, nil
}

// mockSessionDeleter はSessionDeleterのモック実装。
type mockSessionDeleter struct {
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionDeleter) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// --- GET /auth/me テスト ---

func TestAuthHandler_Me_Success(t *testing.T) {
	svc := &mockAuthService{
		getByIDFn: func(ctx context.Context, userID int64) (*model.User, error) {
			if userID != 42 {
				t.Errorf("userID = %d, want 42", userID)
			}
			return &model.User{ID: 42, Email: "taro@example.com", Name: "Taro"}, nil
		},
	}
	h := NewAuthHandler(svc, &mockSessionDeleter{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/auth/me", nil), 42)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp meResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 42 {
		t.Errorf("resp.ID = %d, want 42", resp.ID)
	}
	if resp.Email != "taro@example.com" {
		t.Errorf("resp.Email = %q, want %q", resp.Email, "taro@example.com")
	}
}

// 認証されていないリクエストは401になること
func TestAuthHandler_Me_Unauthorized(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockSessionDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// ユーザーが見つからない場合は404になること
func TestAuthHandler_Me_UserNotFound(t *testing.T) {
	svc := &mockAuthService{
		getByIDFn: func(ctx context.Context, userID int64) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(svc, &mockSessionDeleter{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/auth/me", nil), 999)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /auth/logout テスト ---

// セッションが削除されCookieが無効化されること
func TestAuthHandler_Logout_DeletesSession(t *testing.T) {
	var deletedID string
	deleter := &mockSessionDeleter{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, deleter)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "session-abc" {
		t.Errorf("deleted session ID = %q, want %q", deletedID, "session-abc")
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("len(cookies) = %d, want 1", len(cookies))
	}
	if cookies[0].Name != "session_id" || cookies[0].MaxAge != -1 {
		t.Errorf("cookie = %+v, want cleared session_id", cookies[0])
	}
}

// Cookieなしでも204を返すこと（冪等なログアウト）
func TestAuthHandler_Logout_NoCookie(t *testing.T) {
	deleter := &mockSessionDeleter{
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Error("DeleteByID should not be called without a cookie")
			return nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, deleter)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// セッション削除に失敗しても204を返すこと
func TestAuthHandler_Logout_DeleteError_Still204(t *testing.T) {
	deleter := &mockSessionDeleter{
		deleteByIDFn: func(ctx context.Context, id string) error {
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(&mockAuthService{}, deleter)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-abc"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
