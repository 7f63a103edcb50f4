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
	"crypto/rand"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/stacklab/dto"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/board"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/sdk/gen"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

// Machine 封裝一台「可對外提供 Run」的遊戲機台。
//
// 你可以把 Machine 視為棋盤的「外殼（shell）」：
//   - 對外：提供 Run 入口（HTTP/模擬器通常只操作 Machine）。
//   - 對內：持有 RNG（Core）、棋盤（sdk/board.Board）與落子生成器（sdk/gen.DropGenerator）。
//
// 並發語意：
//   - Machine 預設不是 lock-free 結構；它內含可重用的 request/result buffer（熱路徑），因此同一台 Machine 不應被多 goroutine 同時 Run。
//   - 若要併發模擬，由更高層建立多台 Machine 分散到不同 worker 並管理其生命週期。
//
// Buffer 語意（非常重要，影響 DX 與正確性）：
//   - RunRequest / RunResult 會被重用（避免 GC），每次 Run 會覆寫內容。
//   - 你若需要在 Run 後保留結果，請在離開臨界區前轉成 DTO（或自行 copy 你需要的欄位）。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Machine struct {
	gameName   string             // 遊戲名稱（來自 GameSetting.GameName，主要用於觀測/日誌）
	gameId     spec.GID           // 遊戲 ID（Catalog 內唯一；用於路由與查表）
	core       *core.Core         // RNG 核心（PRNG + Snapshot/Restore 合約；隨機模擬會頻繁取樣）
	board      *board.Board       // 棋盤執行核心（Drop -> 消行 -> 重落）
	gen        *gen.DropGenerator // 落子生成器（隨機模擬用；由 Core 取樣）
	width      int                // 棋盤寬度（來自 GameSetting.Board，parse 預檢用）
	RunRequest *buf.RunRequest    // 可重用的請求 buffer（每次 Run 會覆寫/填充）
	RunResult  *buf.RunResult     // 可重用的結果 buffer（熱路徑；每次 Run 會覆寫）
	mu         sync.Mutex         // 防併發鎖：保護可重用 buffers 與棋盤狀態一致性
	initseed   int64              // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
	isSim      bool               // 模擬模式：結果不填棋盤內容（熱路徑省拷貝）
}

// newMachine 以「隨機 seed」建立 Machine。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Machine.initseed）
//
// seed 只保證了新建的Machine起點，如果需要在任意局後將機台"重設"到任意Core節點，請利用Snapshot Restore來操作
func newMachine(gs *spec.GameSetting, cf core.PRNGFactory, isSim bool) (*Machine, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newMachineWithSeed(gs, cf, seed.Int64(), isSim)
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 這是最常用的「可重現」入口：同一份 GameSetting + 同一個 seed，應能得到一致的隨機序列（取決於 Core 實作）。
//
// 建立流程（概念）：
//  1. core.New(cf.New(seed)) 建出 RNG 核心
//  2. board.New(gs.Board, gs.Resettle) 依設定建出棋盤
//  3. gen.NewDropGenerator 建出隨機落子生成器
//  4. 初始化 Machine 需要的 buffers（RunRequest/RunResult）
func newMachineWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, isSim bool) (*Machine, error) {
	m := &Machine{
		gameName: gs.GameName,
		gameId:   gs.GameID,
		core:     core.New(cf.New(seed)),
		initseed: seed,
		isSim:    isSim,
	}
	var err error
	m.board, err = board.New(gs.Board, gs.Resettle)
	if err != nil {
		return nil, err
	}
	m.gen, err = gen.NewDropGenerator(m.core, gs)
	if err != nil {
		return nil, err
	}
	m.width = m.board.Width()
	m.RunRequest = &buf.RunRequest{}
	m.RunResult = buf.NewRunResult(gs)
	return m, nil
}

// Run 為主要公開入口，會驗證請求、執行整局落子並回傳結果。
//
// 每次 Run 都是獨立的一局：棋盤先清空（或還原請求帶入的起始快照），
// 再依序執行所有落子，結算後轉成 DTO 回傳。
func (m *Machine) Run(r *dto.RunRequest) (dto.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 校驗請求合法性
	if err := m.valid(r); err != nil {
		return dto.RunResult{}, err
	}

	// 2. parse dto to inner run request
	req, err := r.Parse(m.width)
	if err != nil {
		return dto.RunResult{}, err
	}

	// 3. 準備棋盤：清空或還原起始快照
	m.board.Reset()
	startRows, err := r.StartRows()
	if err != nil {
		return dto.RunResult{}, err
	}
	if len(startRows) > 0 {
		if err := m.board.SetRows(startRows); err != nil {
			return dto.RunResult{}, err
		}
	}

	// 4. 執行落子
	sr, err := m.runDrops(req.Drops)
	if err != nil {
		return dto.RunResult{}, err
	}

	// 5. dto
	return dto.NewRunResultDTO(sr)
}

// RunInternal 直接取得內部 RunResult；常用於模擬器或測試
//
// 請勿在正式環境使用
//
// 此行為跳過名稱/ID 檢查，棋盤一律從空盤開始。
func (m *Machine) RunInternal(req *buf.RunRequest) (*buf.RunResult, error) {
	m.board.Reset()
	return m.runDrops(req.Drops)
}

// RunRandLine 產生 n 手隨機落子並跑完一局（熱路徑函數）。
func (m *Machine) RunRandLine(n int) (*buf.RunResult, error) {
	m.board.Reset()
	return m.runDrops(m.gen.Line(n))
}

// runDrops 在目前棋盤上依序執行落子並填入結果緩衝。
//
// 任何一手失敗即中止：Warn 類錯誤（非法棋子/越界）代表輸入不合法，
// Fatal 類錯誤（疊高觸頂）代表該局不可恢復，兩者都原樣往上傳。
func (m *Machine) runDrops(drops []buf.Drop) (*buf.RunResult, error) {
	b := m.board
	for _, d := range drops {
		if err := d.Valid(); err != nil {
			return nil, err
		}
		if _, err := b.Drop(d.Piece, d.X); err != nil {
			return nil, err
		}
	}

	rr := m.RunResult
	rr.Reset()
	rr.Height = b.Height()
	rr.Drops = len(drops)
	rr.Cleared = b.Cleared()
	if !m.isSim {
		rr.Rows = append(rr.Rows[:0], b.Rows()...)
	}
	return rr, nil
}

// Drop 單手落子（dev 模式用）：不清空棋盤，直接在目前狀態上落一手。
func (m *Machine) Drop(p piece.Piece, x int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board.Drop(p, x)
}

// Height 目前棋盤疊高。
func (m *Machine) Height() int {
	return m.board.Height()
}

// Cleared 開局至今累計消除的行數。
func (m *Machine) Cleared() int {
	return m.board.Cleared()
}

// Rows 目前棋盤內容的複本。
func (m *Machine) Rows() []uint16 {
	return m.board.Rows()
}

// ResetBoard 清空棋盤，開始新的一局。
func (m *Machine) ResetBoard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board.Reset()
}

func (m *Machine) valid(req *dto.RunRequest) error {
	if m.gameId != req.GameId {
		return errs.NewWarn("game id is not matched")
	}
	if m.gameName != req.GameName {
		return errs.NewWarn("game name is not matched")
	}
	return nil
}

// SnapshotCore 取得Core狀態暫存 當前僅提供取得Core狀態
func (m *Machine) SnapshotCore() ([]byte, error) {
	return m.core.Snapshot()
}

// RestoreCore 恢復Core狀態暫存 當前僅提供恢復Core狀態
func (m *Machine) RestoreCore(src []byte) error {
	return m.core.Restore(src)
}
