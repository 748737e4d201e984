// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 本サービスでは認証結果のスコープキーとしてのみ扱い、
// ライフサイクル管理（登録・パスワード等）は外部コラボレーターの責務。
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 発行は外部の認証フローが行い、本サービスは検証のみを行う。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
