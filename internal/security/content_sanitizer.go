// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は連絡先の自由テキスト（additional_data）をサニタイズし、
// 保存型XSSなどのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格ポリシーを使用し、HTMLタグを一切許可しない。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由テキストのサニタイズ機能のインターフェースを定義する。
// 連絡先の保存前（作成・更新）に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグをすべて除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// 連絡先のメモ欄はプレーンテキストとして扱うため、
// タグを一切許可しないStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグをすべて除去して返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
