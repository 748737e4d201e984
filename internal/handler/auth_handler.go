package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/contactman/internal/middleware"
	"github.com/hitoshi/contactman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// GetByID は指定IDのユーザーを返す。
	GetByID(ctx context.Context, userID int64) (*model.User, error)
}

// SessionDeleter はセッション削除のためのインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionDeleter interface {
	DeleteByID(ctx context.Context, id string) error
}

// AuthHandler は認証状態のHTTPハンドラー。
// セッションの発行は外部の認証基盤が行うため、ここでは
// 認証済みセッションの参照と破棄のみを提供する。
type AuthHandler struct {
	service        AuthServiceInterface
	sessionDeleter SessionDeleter
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sessionDeleter SessionDeleter) *AuthHandler {
	return &AuthHandler{
		service:        service,
		sessionDeleter: sessionDeleter,
	}
}

// meResponse は認証済みユーザー情報のAPIレスポンス。
type meResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Me は認証済みユーザー自身の情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	})
}

// Logout は現在のセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err == nil && cookie.Value != "" {
		if err := h.sessionDeleter.DeleteByID(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to delete session",
				slog.String("error", err.Error()),
			)
		}
	}

	// Cookieを無効化
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	w.WriteHeader(http.StatusNoContent)
}
