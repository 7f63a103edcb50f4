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

package board

// resettleIslands 消行後的重落：把殘塊依 4-連通（上下左右）分群，
// 每群視為一個剛體「島」，依發現順序重新落下。
//
// 發現順序固定為由上到下、同列由左到右；先落定的島會成為後落島的地形。
// 島內相對格位在重落過程中完全不變（剛體），只會整體下移。
func (b *Board) resettleIslands() error {
	b.snap = append(b.snap[:0], b.rows...)
	b.rows = b.rows[:0]
	b.visited.Clear()

	w := b.set.Width
	for r := len(b.snap) - 1; r >= 0; r-- {
		if b.snap[r] == 0 {
			continue
		}
		for c := 0; c < w; c++ {
			if b.snap[r]&(1<<uint(c)) == 0 {
				continue
			}
			key := b.cellKey(r, c)
			if _, ok := b.visited.Get(key); ok {
				continue
			}
			minRow, maxRow := b.flood(r, c)
			masks := b.islandMasks(minRow, maxRow)

			// 與 Drop 相同的落點搜尋，但目標是目前已重建的棋盤
			y := len(b.rows)
			for y > 0 && !b.collides(masks, y-1) {
				y--
			}
			if err := b.place(masks, y); err != nil {
				return err
			}
		}
	}
	return nil
}

// flood 以顯式堆疊做 4-連通 flood fill，從 (r, c) 展開整個島。
// 走訪到的格位收進 b.cells，回傳島所佔的最低與最高列。
func (b *Board) flood(r, c int) (minRow, maxRow int) {
	w := b.set.Width
	b.stack = b.stack[:0]
	b.cells = b.cells[:0]

	start := b.cellKey(r, c)
	b.visited.Put(start, struct{}{})
	b.stack = append(b.stack, start)
	minRow, maxRow = r, r

	for len(b.stack) > 0 {
		k := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		b.cells = append(b.cells, k)

		cr, cc := int(k)/w, int(k)%w
		if cr < minRow {
			minRow = cr
		}
		if cr > maxRow {
			maxRow = cr
		}

		b.visit(cr-1, cc)
		b.visit(cr+1, cc)
		b.visit(cr, cc-1)
		b.visit(cr, cc+1)
	}
	return minRow, maxRow
}

// visit 將 (r, c) 推入待訪堆疊：需在快照範圍內、有方塊、且未走訪過。
func (b *Board) visit(r, c int) {
	if r < 0 || r >= len(b.snap) || c < 0 || c >= b.set.Width {
		return
	}
	if b.snap[r]&(1<<uint(c)) == 0 {
		return
	}
	key := b.cellKey(r, c)
	if _, ok := b.visited.Get(key); ok {
		return
	}
	b.visited.Put(key, struct{}{})
	b.stack = append(b.stack, key)
}

// islandMasks 把 b.cells 內的格位以島的最低列為基準轉成逐列 bitmask。
// 4-連通保證 [minRow, maxRow] 區間內每一列都至少有一格。
func (b *Board) islandMasks(minRow, maxRow int) []uint16 {
	w := b.set.Width
	masks := make([]uint16, maxRow-minRow+1)
	for _, k := range b.cells {
		cr, cc := int(k)/w, int(k)%w
		masks[cr-minRow] |= 1 << uint(cc)
	}
	return masks
}

// cellKey 將 (r, c) 壓成單一整數鍵（r*width + c）。
func (b *Board) cellKey(r, c int) uint32 {
	return uint32(r*b.set.Width + c)
}
