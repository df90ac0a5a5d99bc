package person

import (
	"strings"

	"github.com/hitoshi/personcache/internal/model"
)

// Filter は名前・メールアドレス・TaxIDの部分一致（大文字小文字を区別しない）で絞り込む。
// 検索語が空白のみの場合は入力をそのまま返す。入力スライスは変更しない。
func Filter(people []model.Person, term string) []model.Person {
	term = strings.TrimSpace(term)
	if term == "" {
		return people
	}
	lower := strings.ToLower(term)

	matched := make([]model.Person, 0, len(people))
	for _, p := range people {
		if strings.Contains(strings.ToLower(p.Name), lower) ||
			strings.Contains(strings.ToLower(p.TaxID), lower) ||
			strings.Contains(strings.ToLower(p.Email), lower) {
			matched = append(matched, p)
		}
	}
	return matched
}
