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

package piece

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/stacklab/errs"
)

var (
	// ErrInvalidPiece 非法的棋子字母。
	ErrInvalidPiece = errs.NewWarn("invalid piece letter")
	// ErrOutOfBounds 落點超出棋盤左右邊界。
	ErrOutOfBounds = errs.NewWarn("piece placement out of board bounds")
)

// Piece 棋子種類。本遊戲不支援旋轉，每種棋子只有一個固定形狀。
type Piece uint8

const (
	None Piece = iota
	I
	Q
	T
	Z
	S
	L
	J
	pieceCount
)

const blockCount = 4

// shapes 以 (x, y) 格位描述棋子形狀，原點在棋子外框左下角，
// y=0 為棋子最底列。每種棋子恰好 4 格。
var shapes = [pieceCount][blockCount][2]int8{
	I: {{0, 0}, {1, 0}, {2, 0}, {3, 0}},
	Q: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	T: {{0, 1}, {1, 1}, {2, 1}, {1, 0}},
	Z: {{1, 0}, {2, 0}, {0, 1}, {1, 1}},
	S: {{0, 0}, {1, 0}, {1, 1}, {2, 1}},
	L: {{0, 0}, {0, 1}, {0, 2}, {1, 0}},
	J: {{1, 0}, {1, 1}, {1, 2}, {0, 0}},
}

var names = [pieceCount]string{None: "?", I: "I", Q: "Q", T: "T", Z: "Z", S: "S", L: "L", J: "J"}

// widths / heights 由 shapes 推導，init 時填入。
var widths, heights [pieceCount]int

func init() {
	for p := I; p < pieceCount; p++ {
		w, h := 0, 0
		for _, b := range shapes[p] {
			if int(b[0])+1 > w {
				w = int(b[0]) + 1
			}
			if int(b[1])+1 > h {
				h = int(b[1]) + 1
			}
		}
		widths[p], heights[p] = w, h
	}
}

// FromLetter 將輸入字母轉成棋子。大小寫不敏感，O 視為 Q 的別名
// （方塊外型同為 2x2 正方形，兩種寫法都收）。
func FromLetter(s string) (Piece, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I":
		return I, nil
	case "Q", "O":
		return Q, nil
	case "T":
		return T, nil
	case "Z":
		return Z, nil
	case "S":
		return S, nil
	case "L":
		return L, nil
	case "J":
		return J, nil
	default:
		return None, errs.WrapWithExtra(ErrInvalidPiece, "parse piece letter failed", fmt.Sprintf("letter=%q", s))
	}
}

// All 回傳全部棋子種類（穩定順序），供隨機產生器建表使用。
func All() []Piece {
	return []Piece{I, Q, T, Z, S, L, J}
}

func (p Piece) Valid() bool {
	return p >= I && p < pieceCount
}

func (p Piece) String() string {
	if !p.Valid() {
		return "?"
	}
	return names[p]
}

// Width 棋子外框寬度（欄數）。非法棋子回傳 0。
func (p Piece) Width() int {
	if !p.Valid() {
		return 0
	}
	return widths[p]
}

// Height 棋子外框高度（列數）。非法棋子回傳 0。
func (p Piece) Height() int {
	if !p.Valid() {
		return 0
	}
	return heights[p]
}

// Blocks 回傳棋子的 4 個格位 (x, y)。
func (p Piece) Blocks() [blockCount][2]int8 {
	return shapes[p]
}

// RowMasks 將棋子左緣對齊第 x 欄後轉成逐列 bitmask：
// 索引 0 對應棋子最底列，欄 c 對應 bit c。
//
// dst 為可重用緩衝（熱路徑避免配置），會被清空後填入；回傳值即填入後的 dst。
// 當 x < 0 或 x+Width 超出棋盤寬度時回傳 ErrOutOfBounds。
func (p Piece) RowMasks(x, boardWidth int, dst []uint16) ([]uint16, error) {
	if !p.Valid() {
		return nil, errs.WrapWithExtra(ErrInvalidPiece, "row masks rejected", fmt.Sprintf("piece=%d", uint8(p)))
	}
	if x < 0 || x+widths[p] > boardWidth {
		return nil, errs.WrapWithExtra(ErrOutOfBounds, "row masks rejected",
			fmt.Sprintf("piece=%s x=%d board_width=%d", p, x, boardWidth))
	}
	dst = dst[:0]
	for i := 0; i < heights[p]; i++ {
		dst = append(dst, 0)
	}
	for _, b := range shapes[p] {
		dst[b[1]] |= 1 << (uint(x) + uint(b[0]))
	}
	return dst, nil
}
