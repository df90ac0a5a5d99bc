package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// maxSanitizePasses は文字参照の多重エンコードを剥がす回数の上限。
const maxSanitizePasses = 32

// TextSanitizer は取得元や更新リクエストから入ってくる表示用文字列を平文に正規化する。
// 人物の各フィールドはHTMLとして描画されることを想定しないため、タグはすべて除去する。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はすべてのタグを除去するbluemondayのStrictPolicyでTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Text はタグを除去した平文を返す。"O'Brien" や "Rua & Cia" のような値はそのまま保たれる。
//
// 文字参照を復元するとタグが現れる入力（"&lt;b&gt;" など）は、復元後のタグも除去する。
// タグの開始にならない "<"（"a<b" や "<3"）は文字として残す。
// 結果はこれ以上変化しない形になるまで繰り返し正規化するため、Text(Text(x)) == Text(x) が成り立つ。
func (s *TextSanitizer) Text(raw string) string {
	out := strings.TrimSpace(raw)
	for i := 0; i < maxSanitizePasses && out != ""; i++ {
		next := s.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// pass はタグを1段除去し、文字参照を1段復元する。
func (s *TextSanitizer) pass(text string) string {
	cleaned := s.policy.Sanitize(escapeStrayLT(text))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// escapeStrayLT はタグの開始とみなせない "<" を "&lt;" に置き換える。
// タグの開始は "<" の直後が英字・"/"・"!"・"?" で、後方に ">" がある場合に限る。
func escapeStrayLT(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '<' && !startsTag(text, i) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func startsTag(text string, i int) bool {
	if i+1 >= len(text) {
		return false
	}
	switch c := text[i+1]; {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', c == '/', c == '!', c == '?':
	default:
		return false
	}
	return strings.IndexByte(text[i+1:], '>') >= 0
}
