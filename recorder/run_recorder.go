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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/spec"
	"github.com/zintix-labs/stacklab/stats"
)

// RunRecorder 模擬紀錄員
//
// RunRecorder 負責紀錄每一局的模擬結果，並透過Done輸出統計報表
type RunRecorder struct {
	GameName  string
	GameId    spec.GID
	MaxHeight int
	Basic     *BasicRecord
	Dist      *DistRecord
}

// BasicRecord 基本模擬資料紀錄
type BasicRecord struct {
	Lines        int
	TotalDrops   int
	TotalCleared int
	ZeroLines    int
	MaxHeight    int
	MinHeight    int
	HeightSum    int
	HeightSqSum  float64 // 平方和
}

// DistRecord 疊高區間落點統計
//
// 紀錄時紀錄int資訊
type DistRecord struct {
	Bucket        *stats.HeightBuckets
	HeightCollect []int
	Hist          []int // 每個確切疊高的局數，索引 = 疊高
}

func NewRunRecorder(name string, id spec.GID, maxHeight int) (*RunRecorder, error) {
	s := new(RunRecorder)

	if name == "" {
		return s, errs.NewFatal("game name must not be empty")
	}

	if maxHeight <= 0 {
		return s, errs.NewFatal(fmt.Sprintf("max height err %d", maxHeight))
	}
	// 通過valid
	s.GameName = name
	s.GameId = id
	s.MaxHeight = maxHeight
	s.Basic = newBasicRecord()
	s.Dist = newDistRecord(maxHeight)

	return s, nil
}

func MergeRunRecorder(r []*RunRecorder) (*RunRecorder, error) {
	r0 := r[0]
	s, err := NewRunRecorder(r0.GameName, r0.GameId, r0.MaxHeight)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.GameName != r0.GameName {
			return s, errs.NewFatal("merge run record err : different game name")
		}
		if v.GameId != r0.GameId {
			return s, errs.NewFatal("merge run record err : different game id")
		}
		if v.MaxHeight != r0.MaxHeight {
			return s, errs.NewFatal("merge run record err : different max height")
		}
		s.Basic.Lines += v.Basic.Lines
		s.Basic.TotalDrops += v.Basic.TotalDrops
		s.Basic.TotalCleared += v.Basic.TotalCleared
		s.Basic.ZeroLines += v.Basic.ZeroLines
		s.Basic.HeightSum += v.Basic.HeightSum
		s.Basic.HeightSqSum += v.Basic.HeightSqSum
		if v.Basic.Lines > 0 {
			if v.Basic.MaxHeight > s.Basic.MaxHeight {
				s.Basic.MaxHeight = v.Basic.MaxHeight
			}
			if v.Basic.MinHeight < s.Basic.MinHeight {
				s.Basic.MinHeight = v.Basic.MinHeight
			}
		}

		// 整合Dist
		for i := range v.Dist.HeightCollect {
			s.Dist.HeightCollect[i] += v.Dist.HeightCollect[i]
		}
		for i := range v.Dist.Hist {
			s.Dist.Hist[i] += v.Dist.Hist[i]
		}
	}
	return s, nil
}

// Record 以單局結果更新累計統計（熱路徑函數）
func (s *RunRecorder) Record(rr *buf.RunResult) {
	h := rr.Height

	// Basic
	s.Basic.Lines++
	s.Basic.TotalDrops += rr.Drops
	s.Basic.TotalCleared += rr.Cleared
	s.Basic.HeightSum += h
	s.Basic.HeightSqSum += float64(h * h)
	if h == 0 {
		s.Basic.ZeroLines++
	}
	if h > s.Basic.MaxHeight {
		s.Basic.MaxHeight = h
	}
	if h < s.Basic.MinHeight {
		s.Basic.MinHeight = h
	}

	// Dist
	s.Dist.HeightCollect[s.Dist.Bucket.Index(h)]++
	if h >= 0 && h < len(s.Dist.Hist) {
		s.Dist.Hist[h]++
	}
}

// Heights 將疊高直方圖展開為逐局疊高樣本（升冪），供深入評估使用。
//
// 分位數與比例估計只需要樣本的分布，不需要原始順序。
func (s *RunRecorder) Heights() []int {
	out := make([]int, 0, s.Basic.Lines)
	for h, c := range s.Dist.Hist {
		for range c {
			out = append(out, h)
		}
	}
	return out
}

func (s *RunRecorder) Done() *stats.HeightReport {
	minH := s.Basic.MinHeight
	if s.Basic.Lines == 0 {
		minH = 0
	}

	report := &stats.HeightReport{
		Summary: &stats.SummaryReport{
			GameName:     s.GameName,
			GameId:       s.GameId,
			Lines:        s.Basic.Lines,
			TotalDrops:   s.Basic.TotalDrops,
			TotalCleared: s.Basic.TotalCleared,
			ZeroLines:    s.Basic.ZeroLines,
			MaxHeight:    s.Basic.MaxHeight,
			MinHeight:    minH,
			P50:          s.percentile(0.50),
			P90:          s.percentile(0.90),
			P99:          s.percentile(0.99),
		},
		Moment: &stats.MomentReport{
			HeightSum:   s.Basic.HeightSum,
			HeightSqSum: s.Basic.HeightSqSum,
		},
		Dist: &stats.DistReport{
			HeightBucket:  s.Dist.Bucket.HeightBucketStr(),
			HeightCollect: s.Dist.HeightCollect,
			HeightDist:    nil,
		},
	}
	return report
}

// percentile 以直方圖累計走訪取最近秩分位數。
func (s *RunRecorder) percentile(q float64) int {
	lines := s.Basic.Lines
	if lines == 0 {
		return 0
	}
	rank := int(q * float64(lines))
	if rank >= lines {
		rank = lines - 1
	}
	acc := 0
	for h, c := range s.Dist.Hist {
		acc += c
		if acc > rank {
			return h
		}
	}
	return len(s.Dist.Hist) - 1
}

func newBasicRecord() *BasicRecord {
	b := new(BasicRecord)
	b.MinHeight = int(^uint(0) >> 1)
	return b
}

func newDistRecord(maxHeight int) *DistRecord {
	d := new(DistRecord)
	d.Bucket = stats.Buckets
	d.HeightCollect = make([]int, stats.Buckets.Len())
	d.Hist = make([]int, maxHeight+1)
	return d
}
