package spec

import (
	"fmt"

	"github.com/zintix-labs/stacklab/errs"
)

// GameSetting 包含啟動一個機台所需的所有高階設定。
//
// Resettle 開啟消行後的重落機制：消行後殘塊依連通性分群，
// 各自視為剛體再落下一次，落定後若又出現滿行則重複此流程。
// Fixed 為遊戲自訂參數區（例如隨機模擬的棋子權重），
// 由 DecodeFixed 轉成使用端自己的型別。
type GameSetting struct {
	GameName string         `yaml:"game_name" json:"game_name"`
	GameID   GID            `yaml:"game_id"   json:"game_id"`
	Board    BoardSetting   `yaml:"board"     json:"board"`
	Resettle bool           `yaml:"resettle"  json:"resettle"`
	Fixed    map[string]any `yaml:"fixed"     json:"fixed"`
}

// init
func (gs *GameSetting) init() error {
	if err := gs.Board.Init(); err != nil {
		return errs.Wrap(err, fmt.Sprintf("game_name: %s err:invalid board setting", gs.GameName))
	}
	return gs.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (gs *GameSetting) valid() error {
	if gs.GameName == "" {
		return errs.NewFatal("empty game_name")
	}
	if gs.GameID == 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:empty game_id", gs.GameName))
	}
	return nil
}
