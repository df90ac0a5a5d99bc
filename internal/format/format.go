// Package format は人物データの表示用整形を提供する。
// 保持データには影響しない純粋な文字列変換のみを扱い、整形できない値は元の文字列を返す。
package format

import (
	"strings"
	"time"
	"unicode"
)

// dateLayout は日付表示の書式（dd/mm/yyyy）。
const dateLayout = "02/01/2006"

// TaxID は11桁の数字を "000.000.000-00" 形式に整形する。
// 数字以外を除いた結果が11桁でない場合は入力をそのまま返す。
func TaxID(raw string) string {
	d := digits(raw)
	if len(d) != 11 {
		return raw
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// Phone は市外局番付きの電話番号を "(00) 00000-0000" または "(00) 0000-0000" 形式に整形する。
// 数字が11桁・10桁以外の場合は入力をそのまま返す。
func Phone(raw string) string {
	d := digits(raw)
	switch len(d) {
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:11]
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:10]
	default:
		return raw
	}
}

// Date はISO-8601の日時文字列を "dd/mm/yyyy" 形式に整形する。
// 空文字列は "-" を返し、解析できない値は入力をそのまま返す。
func Date(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(dateLayout)
		}
	}
	return raw
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
