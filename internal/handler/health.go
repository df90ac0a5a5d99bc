package handler

import "net/http"

// Health はプロセスの生存確認に応答する。取得元の状態には依存しない。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
