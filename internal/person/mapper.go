package person

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/personcache/internal/model"
	"github.com/hitoshi/personcache/internal/randomuser"
)

// taxIDLength は取り込み時に導出するTaxIDの桁数。
const taxIDLength = 11

// DeriveTaxID は取得元のログイン識別子からTaxIDを決定的に導出する。
// 英数字以外を除去して先頭11文字を取り、足りない場合は末尾を'0'で埋める。
// チェックディジットの正しさは保証しない。
func DeriveTaxID(loginID string) string {
	var b strings.Builder
	b.Grow(taxIDLength)
	for _, r := range loginID {
		if b.Len() == taxIDLength {
			break
		}
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		}
	}
	for b.Len() < taxIDLength {
		b.WriteByte('0')
	}
	return b.String()
}

// ToPerson は取得元の生データを0始まりのindexに対応するPersonに変換する。
// IDはindex+1、電話番号はphoneが空ならcellを使用する。
func ToPerson(u randomuser.User, index int, status model.Status) model.Person {
	p := model.Person{
		ID:             index + 1,
		Name:           strings.TrimSpace(u.Name.First + " " + u.Name.Last),
		TaxID:          DeriveTaxID(u.Login.UUID),
		Email:          u.Email,
		Phone:          u.Phone,
		Address:        formatAddress(u.Location),
		RegisteredDate: u.Registered.Date,
		Status:         status,
		SourceID:       normalizeSourceID(u.Login.UUID),
	}
	if p.Phone == "" {
		p.Phone = u.Cell
	}
	if u.DOB.Date != "" {
		d := u.DOB.Date
		p.BirthDate = &d
	}
	return p
}

// formatAddress は "番地 通り名, 市, 州" 形式の住所を組み立てる。欠けている要素は詰める。
func formatAddress(loc randomuser.Location) string {
	var street []string
	if loc.Street.Number != 0 {
		street = append(street, strconv.Itoa(loc.Street.Number))
	}
	if loc.Street.Name != "" {
		street = append(street, loc.Street.Name)
	}

	parts := make([]string, 0, 3)
	for _, part := range []string{strings.Join(street, " "), loc.City, loc.State} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// normalizeSourceID はUUIDとして解釈できる識別子を正規形にそろえる。
func normalizeSourceID(raw string) string {
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
