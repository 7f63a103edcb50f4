// Package index 提供 API root 的簡易導覽頁。
package index

import (
	"encoding/json"
	"net/http"
)

// IndexHandlerFn 列出可用的 endpoints，方便人工探索。
func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"GET/POST /v1/run":      "run a drop sequence on a pooled machine",
		"GET/POST /v1/sim":      "random simulation, basic height statistics",
		"GET/POST /v1/simest":   "random simulation with quantile estimation",
		"POST     /v1/simbycfg": "simulate an ad-hoc game setting (JSON)",
		"POST     /v1/stat":     "recompute statistics from external height samples",
		"GET      /v1/games":    "list registered games",
		"GET      /v1/metrics":  "machine pool metrics",
		"GET      /dev":         "dev panel",
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(endpoints)
}
