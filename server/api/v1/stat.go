package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/stacklab/recorder"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/stats"
)

// DistStat 外部落子結果的原始樣本：逐局最終疊高。
// 用於把外部（或離線）模擬的結果丟回來重算統計報表。
type DistStat struct {
	GameName  string `json:"game_name"`
	MaxHeight int    `json:"max_height"`
	Heights   []int  `json:"heights"`
}

func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(dst.Heights) < 1 {
		http.Error(w, "heights must not be empty", http.StatusBadRequest)
		return
	}
	if dst.GameName == "" {
		dst.GameName = "external"
	}
	// max_height 未提供時以樣本最大值為準
	maxH := dst.MaxHeight
	for _, h := range dst.Heights {
		if h < 0 {
			http.Error(w, "heights must be non-negative", http.StatusBadRequest)
			return
		}
		if h > maxH {
			maxH = h
		}
	}
	if maxH < 1 {
		// 全零樣本也是合法輸入，紀錄員仍需要至少 1 的分桶上限
		maxH = 1
	}

	rec, err := recorder.NewRunRecorder(dst.GameName, 0, maxH)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 重用單一 RunResult 逐局餵入
	rr := new(buf.RunResult)
	for _, h := range dst.Heights {
		rr.Height = h
		rec.Record(rr)
	}
	st := rec.Done()
	st.Done()

	resp := struct {
		Stats     *stats.HeightReport     `json:"stats"`
		Estimator *stats.EstimatorHeights `json:"est"`
	}{
		Stats:     st,
		Estimator: stats.EstimatorLineExp(dst.Heights),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
