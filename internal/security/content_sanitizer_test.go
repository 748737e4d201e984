package security

import (
	"strings"
	"testing"
)

// textSanitizerはTextSanitizerServiceインターフェースを満たすことを検証
func TestTextSanitizer_ImplementsInterface(t *testing.T) {
	var _ TextSanitizerService = (*textSanitizer)(nil)
}

// HTMLタグがすべて除去されることを検証
func TestSanitize_StripsHTMLTags(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
	}{
		{"scriptタグ", `<script>alert("xss")</script>`},
		{"imgタグのイベントハンドラ", `<img src=x onerror=alert(1)>`},
		{"aタグのjavascriptスキーム", `<a href="javascript:alert(1)">click</a>`},
		{"iframeタグ", `<iframe src="https://evil.example.com"></iframe>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if strings.Contains(got, "<") {
				t.Errorf("Sanitize(%q) = %q, want no tags", tt.input, got)
			}
		})
	}
}

// タグを含まないプレーンテキストはそのまま返ることを検証
func TestSanitize_PlainTextUnchanged(t *testing.T) {
	s := NewTextSanitizer()

	input := "大学時代の友人。4月に転職。"
	if got := s.Sanitize(input); got != input {
		t.Errorf("Sanitize(%q) = %q, want unchanged", input, got)
	}
}

// 空文字列には空文字列を返すことを検証
func TestSanitize_EmptyString(t *testing.T) {
	s := NewTextSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

// 同一入力に対して常に同一出力を返す（冪等）ことを検証
func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := `<b>memo</b> text`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}
