package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/personcache/internal/format"
	"github.com/hitoshi/personcache/internal/middleware"
	"github.com/hitoshi/personcache/internal/model"
	"github.com/hitoshi/personcache/internal/person"
)

// maxPatchBodySize は更新リクエストのボディの上限バイト数。
const maxPatchBodySize = 64 << 10

// PersonStore は人物ハンドラーが必要とするストアのインターフェース。
type PersonStore interface {
	// RefreshAll は取得元からコレクション全体を取り直す。
	RefreshAll(ctx context.Context) ([]model.Person, error)
	// GetByID は保持中のレコードを返す。
	GetByID(id int) (model.Person, error)
	// Update は指定フィールドのみを上書きし、更新後のレコードを返す。
	Update(id int, patch model.PersonPatch) (model.Person, error)
	// Delete はレコードを削除する。
	Delete(id int) error
	// ListCurrent は現在のコレクションを保持順で返す。
	ListCurrent() []model.Person
}

// PersonHandler は人物キャッシュのHTTPハンドラー。
type PersonHandler struct {
	store  PersonStore
	logger *slog.Logger
}

// NewPersonHandler はPersonHandlerを生成する。
func NewPersonHandler(store PersonStore, logger *slog.Logger) *PersonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonHandler{store: store, logger: logger}
}

// displayFields は表示用に整形した値。保持データとは別に返す。
type displayFields struct {
	TaxID          string `json:"taxId"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"birthDate"`
	RegisteredDate string `json:"registeredDate"`
}

// personResponse は人物1件のAPIレスポンス。
type personResponse struct {
	model.Person
	Display displayFields `json:"display"`
}

// personListResponse は人物一覧のAPIレスポンス。
type personListResponse struct {
	People []personResponse `json:"people"`
	Total  int              `json:"total"`
}

// List は現在のコレクションを返す。qが指定された場合は名前・メール・納税者番号で絞り込む。
// GET /api/people
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	people := person.Filter(h.store.ListCurrent(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, toPersonListResponse(people))
}

// Refresh は取得元からコレクション全体を取り直し、新しい一覧を返す。
// ローカルでの更新・削除はすべて破棄される。
// POST /api/people/refresh
func (h *PersonHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.RefreshAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonListResponse(people))
}

// Get は人物1件を返す。
// GET /api/people/{id}
func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	p, err := h.store.GetByID(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonResponse(p))
}

// Update はボディで指定されたフィールドのみを更新し、更新後のレコードを返す。
// id・registeredDate・sourceIdは指定されても無視する。
// PATCH /api/people/{id}
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var patch model.PersonPatch
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPatchBodySize)).Decode(&patch); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if patch.IsEmpty() {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("更新するフィールドが指定されていません"))
		return
	}

	p, err := h.store.Update(id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonResponse(p))
}

// Delete は人物1件を削除する。
// DELETE /api/people/{id}
func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseID はパスパラメータのIDを解析する。不正な場合は400を書き込みfalseを返す。
func (h *PersonHandler) parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidIDError(raw))
		return 0, false
	}
	return id, true
}

// handleServiceError はストアから返されたエラーを適切なHTTPステータスコードに変換する。
func (h *PersonHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("request canceled",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteErrorResponse(w, http.StatusGatewayTimeout, model.NewRefreshCanceledError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	h.logger.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodePersonNotFound:
		return http.StatusNotFound
	case model.ErrCodeSourceUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeRefreshCanceled:
		return http.StatusGatewayTimeout
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidID:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// --- ヘルパー関数 ---

func toPersonResponse(p model.Person) personResponse {
	birthDate := ""
	if p.BirthDate != nil {
		birthDate = *p.BirthDate
	}
	return personResponse{
		Person: p,
		Display: displayFields{
			TaxID:          format.TaxID(p.TaxID),
			Phone:          format.Phone(p.Phone),
			BirthDate:      format.Date(birthDate),
			RegisteredDate: format.Date(p.RegisteredDate),
		},
	}
}

func toPersonListResponse(people []model.Person) personListResponse {
	resp := personListResponse{
		People: make([]personResponse, len(people)),
		Total:  len(people),
	}
	for i, p := range people {
		resp.People[i] = toPersonResponse(p)
	}
	return resp
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
