// Package model はドメインモデルを定義する。
package model

import "time"

// Contact はユーザーが所有する連絡先を表す。
// 永続化の詳細はrepository層が持ち、この構造体はタグを含まない。
type Contact struct {
	ID             int64
	Name           string
	Surname        string
	Email          string
	Number         string
	BirthDate      time.Time // 誕生日。年月日のみ意味を持つ
	AdditionalData string    // 任意の自由テキスト。未設定の場合は空文字列
	OwnerID        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContactFields は作成・更新で指定される可変フィールドの集合。
// 更新は全フィールドを一括で上書きする（部分更新は提供しない）。
type ContactFields struct {
	Name           string
	Surname        string
	Email          string
	Number         string
	BirthDate      time.Time
	AdditionalData string
}
