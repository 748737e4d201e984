// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/contactman/internal/model"
)

// ContactRepository は連絡先データの永続化インターフェース。
// すべての操作はowner_idをWHERE句に含むスコープ付きクエリとして実行される。
// 後付けの所有チェックは行わない。
type ContactRepository interface {
	// List はオーナーの連絡先を登録順（id昇順）で返す。
	// offset件スキップし、最大limit件を返す。該当なしの場合は空スライスを返す。
	List(ctx context.Context, limit, offset int, ownerID int64) ([]*model.Contact, error)

	// FindByID は指定IDかつ指定オーナーの連絡先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id, ownerID int64) (*model.Contact, error)

	// FindDuplicate はオーナー・メールアドレス・電話番号がすべて一致する連絡先を検索する。
	// 作成前の重複チェックに使用する。見つからない場合はnilを返す。
	FindDuplicate(ctx context.Context, email, number string, ownerID int64) (*model.Contact, error)

	// Create は連絡先を新規作成し、ストアが採番したIDを含むエンティティを返す。
	// 重複チェックは呼び出し側（サービス層）の責務であり、ここでは行わない。
	Create(ctx context.Context, fields model.ContactFields, ownerID int64) (*model.Contact, error)

	// Update は指定ID・オーナーの連絡先の全可変フィールドを一括で上書きし、
	// 更新後のエンティティを返す。該当行がない場合はnilを返し、ストアは変更しない。
	Update(ctx context.Context, id int64, fields model.ContactFields, ownerID int64) (*model.Contact, error)

	// Delete は指定ID・オーナーの連絡先を削除し、削除直前のエンティティを返す。
	// 該当行がない場合はnilを返す。
	Delete(ctx context.Context, id, ownerID int64) (*model.Contact, error)

	// SearchByField はオーナーの連絡先のうち、name・surnameが値に大文字小文字を無視して
	// 一致するか、emailが値に厳密一致するものをすべて返す。
	// この非対称な比較（name/surnameは大文字小文字無視、emailは厳密）は互換性のため維持する。
	SearchByField(ctx context.Context, value string, ownerID int64) ([]*model.Contact, error)

	// ListBirthdayWithinWeek は誕生日の月・日が[今日, 今日+7日]の範囲に入る連絡先を返す。
	// 月の範囲と日の範囲を独立した数値比較として評価する（互換動作）。
	ListBirthdayWithinWeek(ctx context.Context, ownerID int64) ([]*model.Contact, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDを反映する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
