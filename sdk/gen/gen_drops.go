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

package gen

import (
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/sdk/sampler"
	"github.com/zintix-labs/stacklab/spec"
)

// GenFixed 隨機模擬的自訂參數，由 GameSetting.Fixed 解出。
//
// PieceWeights 以棋子字母對應抽樣權重；未提供時全部棋子等權重。
// O 與 Q 為同一棋子，兩種寫法的權重會合併。
type GenFixed struct {
	PieceWeights map[string]int `yaml:"piece_weights"`
}

// DropGenerator 保存隨機產生落子序列所需的所有狀態。
// 會快取棋子清單、加權抽樣表與輸出緩衝，以避免重複配置與計算。
type DropGenerator struct {
	core   *core.Core
	width  int
	pieces []piece.Piece
	lut    *sampler.AliasTable
	drops  []buf.Drop
}

// NewDropGenerator 根據遊戲設定與核心亂數器建立生成器，並立即完成初始化，
// 讓之後的生成流程可以免配置快速執行。
func NewDropGenerator(c *core.Core, gs *spec.GameSetting) (*DropGenerator, error) {
	if err := gs.Board.Init(); err != nil {
		return nil, errs.Wrap(err, "can not create drop generator")
	}

	var fx GenFixed
	if err := spec.DecodeFixed(gs, &fx); err != nil {
		return nil, errs.Wrap(err, "can not create drop generator")
	}

	g := &DropGenerator{
		core:   c,
		width:  gs.Board.Width,
		pieces: piece.All(),
		drops:  make([]buf.Drop, 0, 64),
	}

	weights := make([]int, len(g.pieces))
	if len(fx.PieceWeights) == 0 {
		for i := range weights {
			weights[i] = 1
		}
	} else {
		total := 0
		for letter, w := range fx.PieceWeights {
			p, err := piece.FromLetter(letter)
			if err != nil {
				return nil, errs.Wrap(err, "invalid piece_weights")
			}
			if w < 0 {
				return nil, errs.Warnf("piece_weights[%s] = %d, must be non-negative", letter, w)
			}
			// pieces 依 piece.All() 順序排列，索引 = 棋子值 - 1
			weights[int(p)-1] += w
			total += w
		}
		if total == 0 {
			return nil, errs.NewWarn("piece_weights are all zero")
		}
	}
	g.lut = sampler.BuildAliasTable(weights)
	return g, nil
}

// Line 生成一局 n 手的隨機落子序列（熱路徑函數）。
//
// 棋子依權重抽樣，欄位在該棋子的合法範圍 [0, width-pieceWidth] 內均勻抽樣，
// 因此生成的每一手都必然通過邊界檢查。
// 回傳的切片是內部重用緩衝，下一次 Line 會覆寫。
func (g *DropGenerator) Line(n int) []buf.Drop {
	g.drops = g.drops[:0]
	for i := 0; i < n; i++ {
		p := g.pieces[g.lut.Pick(g.core)]
		x := g.core.IntN(g.width - p.Width() + 1)
		g.drops = append(g.drops, buf.Drop{Piece: p, X: x})
	}
	return g.drops
}
