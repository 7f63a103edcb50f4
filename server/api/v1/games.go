package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/stacklab/server/httperr"
)

// Games 回傳已註冊遊戲的 catalog summary（gid/name/width/max_height/resettle）。
func (sh *SimHandler) Games(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := sh.Stacklab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sum)
}
