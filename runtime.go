// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stacklab

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/stacklab/dto"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/spec"
)

type StackRuntime struct {
	// build-time 來源（只讀引用）
	lab *Stacklab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個遊戲一個 pool）
	pools map[spec.GID]*MachinePool
	ids   []spec.GID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定（一期先簡單，之後可擴展）
	poolSize int // 每個遊戲的池大小（BuildRuntime(n) 的 n）
}

func (rt *StackRuntime) Run(ctx context.Context, req *dto.RunRequest) (dto.RunResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.RunResult{}, errs.NewWarn("run canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.RunResult{}, errs.NewFatal("stack runtime closed: " + rt.ClosedReason())
	default:
	}

	mp, ok := rt.pools[req.GameId]
	if !ok {
		return dto.RunResult{}, errs.NewWarn("game id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return mp.Run(ctx, req)
}

// Metrics 依 ID 順序回傳每個遊戲 pool 的觀測快照。
func (rt *StackRuntime) Metrics() []MachinePoolMetrics {
	ms := make([]MachinePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		if mp, ok := rt.pools[id]; ok {
			ms = append(ms, mp.Metrics())
		}
	}
	return ms
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *StackRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *StackRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)

		for _, mp := range rt.pools {
			mp.Close()
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *StackRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *StackRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
