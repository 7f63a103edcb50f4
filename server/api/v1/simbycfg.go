package v1

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"net/http"

	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/server/httperr"
)

// SetByJson 傳入 JSON設定格式 以及希望模擬的局數與每局手數
func (sh *SimHandler) SetByJson(w http.ResponseWriter, r *http.Request) {
	type SimRequestByJson struct {
		Lines       int             `json:"lines"`
		Drops       int             `json:"drops"`
		GameSetting json.RawMessage `json:"cfg"`
		Seed        *int64          `json:"seed,omitempty"`
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. decode request
	req := new(SimRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Wrap(err, "json decode failed"))
		return
	}

	// 2. vaild lines/drops
	if req.Lines < 1 || req.Lines > 1000000 {
		httperr.Errs(w, errs.NewWarn("lines must be between 1 to 1,000,000"))
		return
	}
	if req.Drops < 1 || req.Drops > 5000 {
		httperr.Errs(w, errs.NewWarn("drops must be between 1 to 5,000"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}

	// 4. NewSimulator
	sim, err := sh.Stacklab.NewSimulatorByJSON(req.GameSetting, *req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	result, _, err := sim.SimRand(req.Lines, req.Drops, false)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 6. 回傳Json
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
