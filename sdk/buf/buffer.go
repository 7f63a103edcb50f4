package buf

import "github.com/zintix-labs/stacklab/spec"

// RunResult 單局模擬結果。
//
// 熱路徑重用緩衝：Machine 會在每局開始時 Reset 後重新填入，
// 呼叫端若要保留內容必須自行複製。
type RunResult struct {
	GameName string
	GameId   spec.GID
	Height   int      // 結算後疊高
	Drops    int      // 本局執行的落子數
	Cleared  int      // 本局累計消除行數
	Rows     []uint16 // 結算後棋盤內容，index 0 = 最底列
}

// NewRunResult 依遊戲設定建立結果緩衝。
func NewRunResult(gs *spec.GameSetting) *RunResult {
	return &RunResult{
		GameName: gs.GameName,
		GameId:   gs.GameID,
		Rows:     make([]uint16, 0, 64),
	}
}

// Reset 清空結果欄位供下一局重用。
func (r *RunResult) Reset() {
	r.Height = 0
	r.Drops = 0
	r.Cleared = 0
	r.Rows = r.Rows[:0]
}
