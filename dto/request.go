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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/stacklab/corefmt"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/parse"
	"github.com/zintix-labs/stacklab/spec"
)

type RunRequest struct {
	GameName  string   `json:"game"`                 // 要跑的遊戲
	GameId    spec.GID `json:"gid"`                  // 遊戲機台編號
	Line      string   `json:"line"`                 // 逗號分隔的落子序列，例如 "Q0,I2,I6"
	BoardB64U string   `json:"board_b64u,omitempty"` // 可選：起始棋盤快照（缺省 = 空棋盤）
}

// DecodeRunRequest 會把 HTTP 請求解碼成 RunRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（game/gid/line/board_b64u）。
//   - POST：從 JSON body 反序列化。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何遊戲合法性校驗；
//     合法性（例如該 GID 是否存在、落子是否越界）應由上層（Machine/Runtime）決定。
//   - 為避免過大 body 影響服務，POST 會對 body 做大小限制（預設 1MiB）。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeRunRequest(r *http.Request) (*RunRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(RunRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.GameName = q.Get("game")
		req.Line = q.Get("line")
		req.BoardB64U = q.Get("board_b64u")

		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
			}
			req.GameId = spec.GID(u)
		}

		return req, nil

	case http.MethodPost:
		// 防止 body 過大（預設 1MiB）
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}

// Parse 依棋盤寬度把文字序列轉成內部請求。
//
// boardWidth 由上層依該 GID 的遊戲設定帶入，解析階段先做一次邊界預檢，
// 棋盤落子時仍會重驗一次。
func (rr *RunRequest) Parse(boardWidth int) (*buf.RunRequest, error) {
	drops, err := parse.LineInto(rr.Line, boardWidth, nil)
	if err != nil {
		return nil, err
	}

	req := &buf.RunRequest{
		GameName: rr.GameName,
		GameId:   rr.GameId,
		Drops:    drops,
	}
	return req, nil
}

// StartRows 解出可選的起始棋盤快照，缺省回傳 nil（空棋盤）。
func (rr *RunRequest) StartRows() ([]uint16, error) {
	if rr.BoardB64U == "" {
		return nil, nil
	}
	frame, err := corefmt.DecodeBase64URL(rr.BoardB64U)
	if err != nil {
		return nil, errs.NewWarn("board snap decode failed " + err.Error())
	}
	rows, err := corefmt.DecodeRowsFrame(frame)
	if err != nil {
		return nil, errs.NewWarn("board snap decode failed " + err.Error())
	}
	return rows, nil
}
