package model

// ChangeType は人物キャッシュに起きた変更の種別。
type ChangeType string

const (
	// ChangeRefreshed はコレクション全体が置き換えられたことを表す。取得失敗で空になった場合も含む。
	ChangeRefreshed ChangeType = "refreshed"
	// ChangeUpdated は1件のレコードが更新されたことを表す。
	ChangeUpdated ChangeType = "updated"
	// ChangeDeleted は1件のレコードが削除されたことを表す。
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent は変更通知の内容。UIはこれを受けて一覧を再取得する。
type ChangeEvent struct {
	Type   ChangeType `json:"type"`
	ID     int        `json:"id,omitempty"`
	Person *Person    `json:"person,omitempty"`
	Total  int        `json:"total"`
}
