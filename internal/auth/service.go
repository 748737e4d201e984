// Package auth はセッションの発行と破棄を提供する。
// ユーザーの本人確認は外部の認証基盤が行い、ここではその結果と
// セッションの紐付けのみを担当する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/contactman/internal/model"
	"github.com/hitoshi/contactman/internal/repository"
)

// ServiceConfig はauthサービスの設定。
type ServiceConfig struct {
	// SessionMaxAge はセッションの有効期間（秒）。
	SessionMaxAge int
}

// Service はセッション管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// IssueSession は認証済みユーザーに対して新しいセッションを発行する。
// セッションIDはUUID v4で生成する。
func (s *Service) IssueSession(ctx context.Context, userID int64) (*model.Session, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}

	now := time.Now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("セッションを発行しました",
		slog.Int64("user_id", userID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return session, nil
}

// RevokeSession は指定IDのセッションを破棄する。
func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}
