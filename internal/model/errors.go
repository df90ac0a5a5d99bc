// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: person, source, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is はエラーコードが一致する場合にtrueを返す。
// メッセージの異なるAPIError同士をerrors.Isで比較できるようにする。
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// 定義済みエラーコード
const (
	ErrCodePersonNotFound    = "PERSON_NOT_FOUND"
	ErrCodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeRefreshCanceled   = "REFRESH_CANCELED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewPersonNotFoundError は人物未検出エラーを生成する。
// 未取得のIDとローカルで削除済みのIDのどちらもこのエラーになる。
func NewPersonNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodePersonNotFound,
		Message:  fmt.Sprintf("指定された人物が見つかりません: %d", id),
		Category: "person",
		Action:   "一覧を再読み込みしてから、もう一度選択してください。",
	}
}

// NewSourceUnavailableError は取得元APIの呼び出し失敗エラーを生成する。
func NewSourceUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSourceUnavailable,
		Message:  fmt.Sprintf("人物データの取得に失敗しました: %s", reason),
		Category: "source",
		Action:   "しばらく待ってから再読み込みしてください。",
	}
}

// NewRefreshCanceledError はリフレッシュが完了前に打ち切られたことを表すエラーを生成する。
// この場合コレクションは直前の状態のまま残る。
func NewRefreshCanceledError() *APIError {
	return &APIError{
		Code:     ErrCodeRefreshCanceled,
		Message:  "人物データの取得が時間内に完了しませんでした。",
		Category: "source",
		Action:   "一覧は前回の内容のままです。しばらく待ってから再読み込みしてください。",
	}
}

// NewInvalidRequestError はリクエスト内容の不備を表すエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidIDError はパスパラメータのIDが整数でない場合のエラーを生成する。
func NewInvalidIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("無効なIDです: %s", raw),
		Category: "validation",
		Action:   "IDには1以上の整数を指定してください。",
	}
}

// NewInternalError は内部エラーの統一レスポンス用エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
