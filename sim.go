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
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/recorder"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/spec"
	"github.com/zintix-labs/stacklab/stats"
)

const capPrepare int = 100

// Simulator 用於模擬棋盤行為，可建立多台機台並平行紀錄統計。
type Simulator struct {
	GameName  string                  // 遊戲名稱
	GameId    spec.GID                // 遊戲編號
	gs        *spec.GameSetting       // 方便重用建立機台與紀錄員
	cf        core.PRNGFactory        // 亂數生成器
	initSeed  int64                   // 初始下的種子
	seedmaker *seedMaker              // 種子生成器
	mBuf      []*Machine              // 併發執行機台實例
	rBuf      []*recorder.RunRecorder // 併發遊戲紀錄員
}

func newSimulator(gs *spec.GameSetting, cf core.PRNGFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, cf, seed.Int64())
}

func newSimulatorWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		GameName:  gs.GameName,
		GameId:    gs.GameID,
		gs:        gs,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.RunRecorder, 0, capPrepare),
	}
	m, err := newMachineWithSeed(gs, cf, s.initSeed, true)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

// Sim 單線模擬器：以一台機台依序跑完外部提供的落子序列（每個元素一局），
// 回傳統計結果與用時。
func (s *Simulator) Sim(lines [][]buf.Drop, showpb bool) (*stats.HeightReport, time.Duration, error) {
	defer s.reset()
	if len(lines) == 0 {
		return nil, 0, errs.NewWarn("lines must not be empty")
	}
	if err := s.prepare(1); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	m := s.mBuf[0]

	bar := pb.StartNew(len(lines))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for _, line := range lines {
		m.board.Reset()
		rr, err := m.runDrops(line)
		if err != nil {
			return nil, 0, err
		}
		r.Record(rr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個機台，依局索引分攤外部提供的落子序列，
// 合併統計結果後回傳統計結果與用時。
//
// 落子是給定的，結果跟單線版完全一致；平行只是加速。
func (s *Simulator) SimMP(lines [][]buf.Drop, mp int, showpb bool) (*stats.HeightReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if len(lines) == 0 {
		return nil, 0, errs.NewWarn("lines must not be empty")
	}
	if mp > len(lines) {
		mp = len(lines)
	}
	if err := s.prepare(mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(len(lines))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	errBuf := make([]error, mp)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			g := s.mBuf[i]
			st := s.rBuf[i]
			for li := i; li < len(lines); li += mp {
				g.board.Reset()
				rr, err := g.runDrops(lines[li])
				if err != nil {
					errBuf[i] = err
					return
				}
				st.Record(rr)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	for _, err := range errBuf {
		if err != nil {
			return nil, 0, err
		}
	}

	st, err := recorder.MergeRunRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimRand 單線隨機模擬：跑 lines 局，每局 drops 手隨機落子。
func (s *Simulator) SimRand(lines int, drops int, showpb bool) (*stats.HeightReport, time.Duration, error) {
	defer s.reset()
	if lines < 1 {
		return nil, 0, errs.NewWarn("lines must > 0")
	}
	if drops < 1 {
		return nil, 0, errs.NewWarn("drops must > 0")
	}
	if err := s.prepare(1); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	m := s.mBuf[0]

	bar := pb.StartNew(lines)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < lines; i++ {
		rr, err := m.RunRandLine(drops)
		if err != nil {
			return nil, 0, err
		}
		r.Record(rr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimRandMP 平行執行多個機台，總計 lines*mp 局隨機模擬，合併統計結果後回傳統計結果與用時。
func (s *Simulator) SimRandMP(lines int, drops int, mp int, showpb bool) (*stats.HeightReport, time.Duration, error) {
	st, used, err := s.simRandMP(lines, drops, mp, showpb)
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()
	return result, used, nil
}

// SimRandEst 與 SimRandMP 相同，但額外回傳逐局疊高的深入評估
// （分位數點估計與 CP 信賴區間）。
func (s *Simulator) SimRandEst(lines int, drops int, mp int, showpb bool) (*stats.HeightReport, *stats.EstimatorHeights, time.Duration, error) {
	st, used, err := s.simRandMP(lines, drops, mp, showpb)
	if err != nil {
		return nil, nil, 0, err
	}
	result := st.Done()
	result.Done()
	est := stats.EstimatorLineExp(st.Heights())
	return result, est, used, nil
}

func (s *Simulator) simRandMP(lines int, drops int, mp int, showpb bool) (*recorder.RunRecorder, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if lines < 1 {
		return nil, 0, errs.NewWarn("lines must > 0")
	}
	if drops < 1 {
		return nil, 0, errs.NewWarn("drops must > 0")
	}
	if err := s.prepare(mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(lines * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	errBuf := make([]error, mp)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			g := s.mBuf[i]
			st := s.rBuf[i]
			for r := 0; r < lines; r++ {
				rr, err := g.RunRandLine(drops)
				if err != nil {
					errBuf[i] = err
					return
				}
				st.Record(rr)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	for _, err := range errBuf {
		if err != nil {
			return nil, 0, err
		}
	}

	st, err := recorder.MergeRunRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	return st, used, nil
}

// prepare 確保有 mp 台機台與 mp 個紀錄員可用。
func (s *Simulator) prepare(mp int) error {
	for len(s.mBuf) < mp {
		m, err := newMachineWithSeed(s.gs, s.cf, s.seedmaker.next(), true)
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	for len(s.rBuf) < mp {
		r, err := recorder.NewRunRecorder(s.GameName, s.GameId, s.gs.Board.MaxHeight)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimRandMP）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
