// Package contact は連絡先管理のドメインロジックを提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/contactman/internal/model"
	"github.com/hitoshi/contactman/internal/repository"
	"github.com/hitoshi/contactman/internal/security"
)

// ContactMetrics は連絡先操作のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type ContactMetrics interface {
	RecordContactCreated()
	RecordContactDeleted()
}

// Service は連絡先管理のサービス層。
// 重複チェックと保存前のサニタイズを担当し、データアクセスはリポジトリに委譲する。
// すべての操作は認証済みオーナーのIDでスコープされる。
type Service struct {
	contactRepo repository.ContactRepository
	sanitizer   security.TextSanitizerService
	metrics     ContactMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（テスト時など記録が不要な場合）。
func NewService(contactRepo repository.ContactRepository, sanitizer security.TextSanitizerService, metrics ContactMetrics) *Service {
	return &Service{
		contactRepo: contactRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// ListContacts はオーナーの連絡先を登録順で返す。
func (s *Service) ListContacts(ctx context.Context, ownerID int64, limit, offset int) ([]*model.Contact, error) {
	contacts, err := s.contactRepo.List(ctx, limit, offset, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先一覧の取得に失敗しました: %w", err)
	}
	return contacts, nil
}

// GetContact は指定IDの連絡先を返す。見つからない場合はnilを返す。
func (s *Service) GetContact(ctx context.Context, ownerID, contactID int64) (*model.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, contactID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先の取得に失敗しました: %w", err)
	}
	return contact, nil
}

// CreateContact は連絡先を新規作成する。
// 同一オーナー配下に(email, number)が一致する連絡先が既に存在する場合は
// DUPLICATE_CONTACTエラーを返し、ストアは変更しない。
func (s *Service) CreateContact(ctx context.Context, ownerID int64, fields model.ContactFields) (*model.Contact, error) {
	existing, err := s.contactRepo.FindDuplicate(ctx, fields.Email, fields.Number, ownerID)
	if err != nil {
		return nil, fmt.Errorf("重複する連絡先の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateContactError()
	}

	if s.sanitizer != nil {
		fields.AdditionalData = s.sanitizer.Sanitize(fields.AdditionalData)
	}

	contact, err := s.contactRepo.Create(ctx, fields, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先の作成に失敗しました: %w", err)
	}

	slog.Info("連絡先を作成しました",
		slog.Int64("contact_id", contact.ID),
		slog.Int64("owner_id", ownerID),
	)

	if s.metrics != nil {
		s.metrics.RecordContactCreated()
	}

	return contact, nil
}

// UpdateContact は指定IDの連絡先の全可変フィールドを一括で上書きする。
// 該当する連絡先がない場合はnilを返し、ストアは変更しない。
func (s *Service) UpdateContact(ctx context.Context, ownerID, contactID int64, fields model.ContactFields) (*model.Contact, error) {
	if s.sanitizer != nil {
		fields.AdditionalData = s.sanitizer.Sanitize(fields.AdditionalData)
	}

	contact, err := s.contactRepo.Update(ctx, contactID, fields, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先の更新に失敗しました: %w", err)
	}
	return contact, nil
}

// DeleteContact は指定IDの連絡先を削除し、削除直前のエンティティを返す。
// 該当する連絡先がない場合はnilを返す。
func (s *Service) DeleteContact(ctx context.Context, ownerID, contactID int64) (*model.Contact, error) {
	contact, err := s.contactRepo.Delete(ctx, contactID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先の削除に失敗しました: %w", err)
	}

	if contact != nil {
		slog.Info("連絡先を削除しました",
			slog.Int64("contact_id", contact.ID),
			slog.Int64("owner_id", ownerID),
		)

		if s.metrics != nil {
			s.metrics.RecordContactDeleted()
		}
	}

	return contact, nil
}

// SearchContacts は検索値に一致する連絡先をすべて返す。
// name・surnameは大文字小文字を無視し、emailは厳密に比較する。
func (s *Service) SearchContacts(ctx context.Context, ownerID int64, value string) ([]*model.Contact, error) {
	contacts, err := s.contactRepo.SearchByField(ctx, value, ownerID)
	if err != nil {
		return nil, fmt.Errorf("連絡先の検索に失敗しました: %w", err)
	}
	return contacts, nil
}

// BirthdayNextWeek は誕生日が今後1週間以内に含まれる連絡先を返す。
func (s *Service) BirthdayNextWeek(ctx context.Context, ownerID int64) ([]*model.Contact, error) {
	contacts, err := s.contactRepo.ListBirthdayWithinWeek(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("誕生日を迎える連絡先の取得に失敗しました: %w", err)
	}
	return contacts, nil
}
