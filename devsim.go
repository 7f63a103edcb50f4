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

package stacklab

import (
	"github.com/zintix-labs/stacklab/corefmt"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/parse"
	"github.com/zintix-labs/stacklab/stats"
)

// DevSimulator
//
// 只提供給Dev模式使用的模擬器，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim      *Simulator // 只開放Sim功能
	m        *Machine   // 同步seed
	before   []byte
	after    []byte
	before64 string
	after64  string
}

// DevDropReport 單機逐步落子的審計報告：
// 棋盤起點/終點各帶一份 base64url 快照，Heights 記錄每一手之後的疊高。
type DevDropReport struct {
	Before  string   `json:"start_b64u"`
	After   string   `json:"after_b64u"`
	Drops   int      `json:"drops"`
	Height  int      `json:"height"`
	Cleared int      `json:"cleared"`
	Heights []int    `json:"heights"`
	Rows    []uint16 `json:"rows"`
}

// Drops 在目前棋盤狀態上逐手執行 line（例如 "I0,Q4,T7"），不會先清盤。
// 要從指定棋盤開始請用 RestoreDrops。
func (d *DevSimulator) Drops(line string) (DevDropReport, error) {
	drops, err := parse.LineInto(line, d.m.width, nil)
	if err != nil {
		return DevDropReport{}, err
	}
	if len(drops) < 1 || len(drops) > 5000 {
		return DevDropReport{}, errs.NewWarn("drops must be between 1 and 5,000")
	}

	before := corefmt.EncodeBase64URL(corefmt.EncodeRowsFrame(d.m.Rows()))

	heights := make([]int, 0, len(drops))
	for _, dp := range drops {
		h, err := d.m.Drop(dp.Piece, dp.X)
		if err != nil {
			return DevDropReport{}, errs.Wrap(err, "drop error")
		}
		heights = append(heights, h)
	}

	rows := d.m.Rows()
	de := DevDropReport{
		Before:  before,
		After:   corefmt.EncodeBase64URL(corefmt.EncodeRowsFrame(rows)),
		Drops:   len(drops),
		Height:  d.m.Height(),
		Cleared: d.m.Cleared(),
		Heights: heights,
		Rows:    rows,
	}
	return de, nil
}

// RestoreDrops 先將棋盤還原到 be64 指定的快照，再逐手執行 line。
func (d *DevSimulator) RestoreDrops(be64 string, line string) (DevDropReport, error) {
	// 反解析 string -> []uint16
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevDropReport{}, errs.NewWarn("decode board failed " + err.Error())
	}
	rows, err := corefmt.DecodeRowsFrame(be)
	if err != nil {
		return DevDropReport{}, errs.NewWarn("decode board failed " + err.Error())
	}
	// restore
	d.m.ResetBoard()
	if err := d.m.board.SetRows(rows); err != nil {
		return DevDropReport{}, errs.NewWarn("machine restore failed")
	}
	return d.Drops(line)
}

type DevSimReport struct {
	Before string              `json:"before"`
	After  string              `json:"after"`
	Stat   *stats.HeightReport `json:"statistic"`
}

func (d *DevSimulator) Sim(lines int, drops int) (DevSimReport, error) {
	// 先存 before 快照
	m := d.sim.mBuf[0]
	be, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	be64 := corefmt.EncodeBase64URL(be)
	d.before = be
	d.before64 = be64

	// 限制檢查
	if lines < 1 || lines > 3_000_000 {
		return DevSimReport{}, errs.NewWarn("lines must be between 1 and 3,000,000")
	}
	if drops < 1 || drops > 5000 {
		return DevSimReport{}, errs.NewWarn("drops must be between 1 and 5,000")
	}
	stat, _, err := d.sim.SimRand(lines, drops, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	af64 := corefmt.EncodeBase64URL(af)
	d.after = af
	d.after64 = af64

	return DevSimReport{
		Before: be64,
		After:  af64,
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, lines int, drops int) (DevSimReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode seed failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.mBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Sim(lines, drops)
}
