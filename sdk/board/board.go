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

// Package board 實作無旋轉落塊棋盤。
//
// 棋盤以列 bitmask 表示：rows[0] 是最底列，欄 c 對應 bit c。
// 一列所有 bit 都為 1 即為滿行，滿行以單趟壓縮一次移除。
// 棋盤不是併發安全的，同一個棋盤同時只能被一個 goroutine 操作，
// 併發模擬請使用多個獨立棋盤。
package board

import (
	"fmt"

	"github.com/kamstrup/intmap"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

var (
	// ErrHeightLimit 疊高超過上限，該局視為不可恢復。
	ErrHeightLimit = errs.NewFatal("board height limit exceeded")
	// ErrBadSnapshot 還原棋盤時內容不合法。
	ErrBadSnapshot = errs.NewWarn("invalid board snapshot")
)

// Board 單一局的棋盤狀態。
type Board struct {
	set      spec.BoardSetting
	resettle bool
	fullMask uint16

	rows    []uint16 // rows[0] = 最底列；不含尾端空列
	cleared int      // 累計消除行數

	// 熱路徑重用緩衝：棋子 bitmask、重落快照、flood fill 的堆疊與格位收集。
	pbuf    []uint16
	snap    []uint16
	stack   []uint32
	cells   []uint32
	visited *intmap.Map[uint32, struct{}]
}

// New 依設定建立棋盤。set 的零值欄位會帶入預設值。
// resettle 開啟消行後的連通分群重落機制。
func New(set spec.BoardSetting, resettle bool) (*Board, error) {
	if err := set.Init(); err != nil {
		return nil, errs.Wrap(err, "can not create board")
	}
	b := &Board{
		set:      set,
		resettle: resettle,
		fullMask: uint16(1)<<uint(set.Width) - 1,
		rows:     make([]uint16, 0, 64),
		pbuf:     make([]uint16, 0, 4),
	}
	if resettle {
		b.snap = make([]uint16, 0, 64)
		b.stack = make([]uint32, 0, 64)
		b.cells = make([]uint32, 0, 64)
		b.visited = intmap.New[uint32, struct{}](256)
	}
	return b, nil
}

// Width 棋盤寬度（欄數）。
func (b *Board) Width() int {
	return b.set.Width
}

// MaxHeight 疊高上限。
func (b *Board) MaxHeight() int {
	return b.set.MaxHeight
}

// Resettle 是否開啟重落機制。
func (b *Board) Resettle() bool {
	return b.resettle
}

// Cleared 開局至今累計消除的行數。
func (b *Board) Cleared() int {
	return b.cleared
}

// Height 目前疊高：最高非空列的索引 + 1，空棋盤為 0。
// 一律由內容重新掃描，不依賴快取值。
func (b *Board) Height() int {
	for r := len(b.rows) - 1; r >= 0; r-- {
		if b.rows[r] != 0 {
			return r + 1
		}
	}
	return 0
}

// Rows 回傳目前棋盤內容的複本（rows[0] = 最底列）。
func (b *Board) Rows() []uint16 {
	if len(b.rows) == 0 {
		return nil
	}
	return append([]uint16(nil), b.rows...)
}

// Reset 清空棋盤，開始新的一局。
func (b *Board) Reset() {
	b.rows = b.rows[:0]
	b.cleared = 0
}

// SetRows 以外部內容覆蓋棋盤（快照還原用）。
// 內容不合法（超出寬度的 bit、超過疊高上限）時棋盤不變。
func (b *Board) SetRows(rows []uint16) error {
	if len(rows) > b.set.MaxHeight {
		return errs.WrapWithExtra(ErrBadSnapshot, "set rows rejected",
			fmt.Sprintf("rows=%d max_height=%d", len(rows), b.set.MaxHeight))
	}
	for i, r := range rows {
		if r&^b.fullMask != 0 {
			return errs.WrapWithExtra(ErrBadSnapshot, "set rows rejected",
				fmt.Sprintf("row=%d mask=%016b width=%d", i, r, b.set.Width))
		}
	}
	b.rows = append(b.rows[:0], rows...)
	// 去掉尾端空列，維持 rows 不含 trailing zero 的內部約定
	for len(b.rows) > 0 && b.rows[len(b.rows)-1] == 0 {
		b.rows = b.rows[:len(b.rows)-1]
	}
	return nil
}

// Drop 將棋子左緣對齊第 x 欄後垂直落下，落定後結算消行（以及重落，
// 若有開啟），回傳結算後的疊高。
//
// 落點由目前疊高往下搜尋：只要再往下一列就會重疊（或觸底）即停。
// 任何錯誤發生時棋盤內容保持不變（placement 是 all-or-nothing）。
func (b *Board) Drop(p piece.Piece, x int) (int, error) {
	masks, err := p.RowMasks(x, b.set.Width, b.pbuf)
	if err != nil {
		return b.Height(), errs.Wrap(err, "drop rejected")
	}
	b.pbuf = masks

	y := len(b.rows)
	for y > 0 && !b.collides(masks, y-1) {
		y--
	}
	if err := b.place(masks, y); err != nil {
		return b.Height(), err
	}
	if err := b.settle(); err != nil {
		return b.Height(), err
	}
	return b.Height(), nil
}

// collides 檢查 masks 底列對齊第 y 列時是否與既有方塊重疊。
func (b *Board) collides(masks []uint16, y int) bool {
	for dy, m := range masks {
		if m == 0 {
			continue
		}
		if r := y + dy; r < len(b.rows) && b.rows[r]&m != 0 {
			return true
		}
	}
	return false
}

// place 將 masks 寫入棋盤，底列對齊第 y 列。
// 超過疊高上限時完全不寫入。
func (b *Board) place(masks []uint16, y int) error {
	top := y + len(masks) - 1
	if top >= b.set.MaxHeight {
		return errs.WrapWithExtra(ErrHeightLimit, "place rejected",
			fmt.Sprintf("top=%d max_height=%d", top+1, b.set.MaxHeight))
	}
	for len(b.rows) <= top {
		b.rows = append(b.rows, 0)
	}
	for dy, m := range masks {
		b.rows[y+dy] |= m
	}
	return nil
}

// settle 落定後的結算。
//
// 未開啟重落：消一次滿行即結束。
// 開啟重落：消行後殘塊分群重落，重落後可能又出現滿行，
// 因此以 {消行; 重落} 迴圈直到消行沒有移除任何列為止。
// 每一輪至少移除一列，迴圈必然終止。
func (b *Board) settle() error {
	if !b.resettle {
		b.clearFull()
		return nil
	}
	for b.clearFull() {
		if err := b.resettleIslands(); err != nil {
			return err
		}
	}
	return nil
}

// clearFull 單趟壓縮移除所有滿行，回傳是否有移除任何列。
// 上方列依原本順序往下遞補。
func (b *Board) clearFull() bool {
	w := 0
	for r := 0; r < len(b.rows); r++ {
		if b.rows[r] == b.fullMask {
			continue
		}
		if w != r {
			b.rows[w] = b.rows[r]
		}
		w++
	}
	removed := len(b.rows) - w
	b.rows = b.rows[:w]
	b.cleared += removed
	return removed > 0
}
