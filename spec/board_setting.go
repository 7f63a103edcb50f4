package spec

import "github.com/zintix-labs/stacklab/errs"

// BoardSetting 棋盤設定。
//
// 零值欄位在 Init 時會帶入預設值（寬度 10、疊高上限 1000），
// 因此設定檔可以只寫需要覆寫的欄位。
type BoardSetting struct {
	Width     int `yaml:"width"      json:"width"`
	MaxHeight int `yaml:"max_height" json:"max_height"`
}

// Init 填入預設值並執行基本檢查。可以重複呼叫。
func (bs *BoardSetting) Init() error {
	if bs.Width == 0 {
		bs.Width = DefaultBoardWidth
	}
	if bs.MaxHeight == 0 {
		bs.MaxHeight = DefaultMaxHeight
	}
	return bs.valid()
}

func (bs *BoardSetting) valid() error {
	if bs.Width < MinBoardWidth || bs.Width > MaxBoardWidth {
		return errs.Fatalf("board width %d out of range [%d, %d]", bs.Width, MinBoardWidth, MaxBoardWidth)
	}
	if bs.MaxHeight < MinMaxHeight {
		return errs.Fatalf("board max_height %d below minimum %d", bs.MaxHeight, MinMaxHeight)
	}
	return nil
}
