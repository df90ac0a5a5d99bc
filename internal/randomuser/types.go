package randomuser

// Response はRandom User APIのレスポンスボディを表す。
// エラー時はResultsの代わりにErrorが設定される。
type Response struct {
	Results []User `json:"results"`
	Error   string `json:"error,omitempty"`
}

// User はRandom User APIが返す1人分の生データ。
// APIはnat等の指定によってフィールドを省略することがあるため、すべて省略可能として扱う。
type User struct {
	Name       Name       `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Cell       string     `json:"cell"`
	Location   Location   `json:"location"`
	DOB        DatedField `json:"dob"`
	Registered DatedField `json:"registered"`
	Login      Login      `json:"login"`
}

// Name は氏名。
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Location は住所。
type Location struct {
	Street Street `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// Street は番地と通り名。
type Street struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// DatedField はdob、registeredのようにISO-8601の日付を持つフィールド。
type DatedField struct {
	Date string `json:"date"`
}

// Login はログイン情報のうち一意識別子のみを保持する。
type Login struct {
	UUID string `json:"uuid"`
}
