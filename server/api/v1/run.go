package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/stacklab"
	"github.com/zintix-labs/stacklab/dto"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/server/httperr"
	"github.com/zintix-labs/stacklab/server/svrcfg"
)

func (c *RunHandler) Run(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeRunRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始 Run
	result, err := c.rt.Run(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Metrics 回傳所有遊戲 pool 的觀測快照（依 gid 順序）。
func (c *RunHandler) Metrics(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.rt.Metrics()); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// ============================================================
// ** RunHandler **
// ============================================================

type RunHandler struct {
	rt *stacklab.StackRuntime
}

func NewRunHandler(sCfg *svrcfg.SvrCfg) (*RunHandler, error) {
	rt, err := sCfg.Stacklab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build run handler error")
	}
	return &RunHandler{rt: rt}, nil
}
