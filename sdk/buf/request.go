package buf

import (
	"fmt"

	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

// ErrMissingInput 缺少必要欄位的落子指令。
var ErrMissingInput = errs.NewWarn("drop missing required input")

// Drop 單一落子指令：棋子種類 + 左緣對齊的欄位。
// 由外部解析層產生，核心仍會防禦性地重驗邊界。
type Drop struct {
	Piece piece.Piece
	X     int
}

// Valid 檢查必要欄位是否齊全。欄位邊界由棋盤落子時驗證。
func (d Drop) Valid() error {
	if !d.Piece.Valid() {
		return errs.WrapWithExtra(ErrMissingInput, "drop rejected",
			fmt.Sprintf("piece=%d x=%d", uint8(d.Piece), d.X))
	}
	return nil
}

// RunRequest 單局模擬請求：一串依序執行的落子指令。
type RunRequest struct {
	GameName string
	GameId   spec.GID
	Drops    []Drop
}

// Reset 清空指令串供重用，保留已配置的底層容量。
func (r *RunRequest) Reset() {
	r.Drops = r.Drops[:0]
}
