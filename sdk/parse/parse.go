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

// Package parse 將文字輸入轉成落子指令串。
//
// 一行輸入是逗號分隔的 token 串，例如 "Q0,I4,T1"。
// 每個 token 為 <棋子字母><欄位數字>，欄位可帶負號（會被拒絕，
// 但要能解析出來才能給出正確的錯誤）。空 token 直接跳過。
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

// Line 解析一行輸入，欄位邊界以預設棋盤寬度（10）預檢。
func Line(line string) ([]buf.Drop, error) {
	return LineInto(line, spec.DefaultBoardWidth, nil)
}

// LineInto 解析一行輸入並填入 dst（熱路徑重用緩衝），
// 欄位邊界以指定棋盤寬度預檢；棋盤落子時仍會重驗一次。
func LineInto(line string, boardWidth int, dst []buf.Drop) ([]buf.Drop, error) {
	dst = dst[:0]
	for _, tok := range strings.Split(line, ",") {
		t := strings.TrimSpace(tok)
		if t == "" {
			continue
		}

		// 字母前綴在第一個數字或負號處結束
		i := 0
		for i < len(t) && !isDigit(t[i]) && t[i] != '-' {
			i++
		}
		letter, num := t[:i], t[i:]

		p, err := piece.FromLetter(letter)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "parse line failed", fmt.Sprintf("token=%q", t))
		}
		if num == "" {
			return nil, errs.WrapWithExtra(buf.ErrMissingInput, "parse line failed",
				fmt.Sprintf("token=%q missing column", t))
		}
		x, err := strconv.Atoi(num)
		if err != nil {
			// 欄位有內容但不是數字：整個 token 視為非法，缺欄位才算 missing input
			return nil, errs.WrapWithExtra(piece.ErrInvalidPiece, "parse line failed",
				fmt.Sprintf("token=%q bad column", t))
		}
		if x < 0 || x > boardWidth-p.Width() {
			return nil, errs.WrapWithExtra(piece.ErrOutOfBounds, "parse line failed",
				fmt.Sprintf("token=%q x=%d board_width=%d", t, x, boardWidth))
		}
		dst = append(dst, buf.Drop{Piece: p, X: x})
	}
	return dst, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
