package model

// Status は人物レコードの有効状態を表す。
type Status string

const (
	// StatusActive は有効な人物を表す。
	StatusActive Status = "active"
	// StatusInactive は無効な人物を表す。
	StatusInactive Status = "inactive"
)

// Valid はStatusが定義済みの値かどうかを返す。
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Person はキャッシュが保持する1人分のレコードを表す。
// IDはリフレッシュ時の位置から採番されるため、リフレッシュをまたいで安定しない。
type Person struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	TaxID          string  `json:"taxId"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	BirthDate      *string `json:"birthDate,omitempty"`
	Address        string  `json:"address"`
	RegisteredDate string  `json:"registeredDate"` // 作成後は変更不可
	Status         Status  `json:"status"`
	SourceID       string  `json:"sourceId,omitempty"` // 取得元のlogin.uuid
}

// Clone はBirthDateのポインタを含めて複製したPersonを返す。
// ストア外へ値を渡すときは必ずこれを使い、保持中のレコードと共有しないようにする。
func (p Person) Clone() Person {
	if p.BirthDate != nil {
		d := *p.BirthDate
		p.BirthDate = &d
	}
	return p
}

// PersonPatch は部分更新の入力を表す。
// nilのフィールドは現在の値を維持する。ID、RegisteredDate、SourceIDは更新できない。
type PersonPatch struct {
	Name      *string `json:"name,omitempty"`
	TaxID     *string `json:"taxId,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	Address   *string `json:"address,omitempty"`
	Status    *Status `json:"status,omitempty"`
}

// IsEmpty は更新対象のフィールドが1つも指定されていない場合にtrueを返す。
func (p PersonPatch) IsEmpty() bool {
	return p.Name == nil && p.TaxID == nil && p.Email == nil && p.Phone == nil &&
		p.BirthDate == nil && p.Address == nil && p.Status == nil
}
