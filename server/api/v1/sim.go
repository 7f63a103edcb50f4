package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"

	"github.com/zintix-labs/stacklab"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/server/httperr"
	"github.com/zintix-labs/stacklab/spec"
	"github.com/zintix-labs/stacklab/stats"
)

type SimHandler struct {
	Stacklab *stacklab.Stacklab
}

func NewSimHandler(lab *stacklab.Stacklab) (*SimHandler, error) {
	return &SimHandler{Stacklab: lab}, nil
}

func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimRequestBody struct {
		GID   spec.GID `json:"gid"`
		Lines int      `json:"lines"`
		Drops int      `json:"drops"`
		Seed  *int64   `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimResponse struct {
		Stats    *stats.HeightReport `json:"stats"`
		UsedTime int64               `json:"used_ms"`
	}
	// ---
	req := new(SimRequestBody)
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if q.Method == http.MethodGet {
		// gid
		if s := q.URL.Query().Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
				return
			}
			req.GID = spec.GID(u)
		} else {
			// 直接空值
			httperr.Errs(w, errs.NewWarn("gid is required"))
			return
		}

		// lines
		if m := q.URL.Query().Get("lines"); m != "" {
			u, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("lines must be integer"))
				return
			}
			req.Lines = int(u)
		} else {
			httperr.Errs(w, errs.NewWarn("lines is required"))
			return
		}

		// drops
		if r := q.URL.Query().Get("drops"); r != "" {
			u, err := strconv.ParseInt(r, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("drops must be integer"))
				return
			}
			req.Drops = int(u)
		} else {
			httperr.Errs(w, errs.NewWarn("drops is required"))
			return
		}

		// seed
		if s := q.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務檢驗
	_, ok := sh.Stacklab.EntryById(req.GID)
	if !ok {
		httperr.Errs(w, errs.NewWarn("gid not found"))
		return
	}
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
	sim, err := sh.Stacklab.NewSimulatorWithSeed(req.GID, *req.Seed)
	if err != nil {
		// 這裡的錯誤是來自stacklab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.GID)))
		return
	}
	st, used, err := sim.SimRand(req.Lines, req.Drops, false)
	if err != nil {
		// 這裡的錯誤來自simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	resp := SimResponse{
		Stats:    st,
		UsedTime: used.Milliseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// SimEst 與 Sim 相同，但額外以多 worker 平行模擬並回傳逐局疊高的深入評估。
func (sh *SimHandler) SimEst(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimEstRequestBody struct {
		GID     spec.GID `json:"gid"`
		Lines   int      `json:"lines"`
		Drops   int      `json:"drops"`
		Workers int      `json:"workers"`
		Seed    *int64   `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimEstResponse struct {
		StatsReport *stats.HeightReport     `json:"stats"`
		Estimator   *stats.EstimatorHeights `json:"est"`
		UsedTime    int64                   `json:"used_ms"`
	}
	// ---
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(SimEstRequestBody)
	if r.Method == http.MethodGet {
		gidStr := r.URL.Query().Get("gid")
		linesStr := r.URL.Query().Get("lines")
		dropsStr := r.URL.Query().Get("drops")
		workersStr := r.URL.Query().Get("workers")

		// gid
		if gidStr != "" {
			u, err := strconv.ParseUint(gidStr, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
				return
			}
			req.GID = spec.GID(u)
		} else {
			httperr.Errs(w, errs.NewWarn("gid is required"))
			return
		}

		// lines
		if linesStr != "" {
			lines, err := strconv.Atoi(linesStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("lines must be integer"))
				return
			}
			req.Lines = lines
		} else {
			httperr.Errs(w, errs.NewWarn("lines is required"))
			return
		}

		// drops
		if dropsStr != "" {
			drops, err := strconv.Atoi(dropsStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("drops must be integer"))
				return
			}
			req.Drops = drops
		} else {
			httperr.Errs(w, errs.NewWarn("drops is required"))
			return
		}

		// workers
		if workersStr != "" {
			workers, err := strconv.Atoi(workersStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("workers must be integer"))
				return
			}
			req.Workers = workers
		}

		// seed
		if s := r.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務邏輯判斷
	if _, ok := sh.Stacklab.EntryById(req.GID); !ok {
		httperr.Errs(w, errs.NewWarn("gid not found"))
		return
	}
	if req.Lines < 1 || req.Lines > 100000 {
		httperr.Errs(w, errs.NewWarn("lines must be between 1 and 100,000"))
		return
	}
	if req.Drops < 1 || req.Drops > 5000 {
		httperr.Errs(w, errs.NewWarn("drops must be between 1 and 5,000"))
		return
	}
	if req.Workers < 1 {
		req.Workers = 4
	}
	if req.Workers > 32 {
		httperr.Errs(w, errs.NewWarn("workers must be between 1 and 32"))
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
	// 取得sim
	sim, err := sh.Stacklab.NewSimulatorWithSeed(req.GID, *req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.GID)))
		return
	}
	st, est, used, err := sim.SimRandEst(req.Lines, req.Drops, req.Workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("simulator err: %d", req.GID)))
		return
	}
	resp := &SimEstResponse{
		StatsReport: st,
		Estimator:   est,
		UsedTime:    used.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
