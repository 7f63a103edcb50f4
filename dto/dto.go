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

package dto

import (
	"github.com/zintix-labs/stacklab/corefmt"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/spec"
)

type RunResult struct {
	GameName  string   `json:"game"`                 // 遊戲名稱
	GameID    spec.GID `json:"gameid"`               // 遊戲編號
	Height    int      `json:"height"`               // 結算後疊高
	Drops     int      `json:"drops"`                // 本局執行的落子數
	Cleared   int      `json:"cleared"`              // 本局累計消除行數
	Rows      []uint16 `json:"rows,omitempty"`       // 結算後棋盤內容，index 0 = 最底列
	BoardB64U string   `json:"board_b64u,omitempty"` // 棋盤快照（rows frame 的 Base64URL）
}

func NewRunResultDTO(rr *buf.RunResult) (RunResult, error) {
	if rr == nil {
		return RunResult{}, errs.NewWarn("run result is nil")
	}

	dto := RunResult{
		GameName: rr.GameName,
		GameID:   rr.GameId,
		Height:   rr.Height,
		Drops:    rr.Drops,
		Cleared:  rr.Cleared,
	}

	if len(rr.Rows) > 0 {
		// RunResult 的 Rows 是重用緩衝，輸出前必須深拷貝
		rows := make([]uint16, len(rr.Rows))
		copy(rows, rr.Rows)
		dto.Rows = rows
		dto.BoardB64U = corefmt.EncodeBase64URL(corefmt.EncodeRowsFrame(rows))
	}

	return dto, nil
}
