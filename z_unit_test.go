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
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/stacklab/dto"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/sdk/parse"
)

var testCfgFS = fstest.MapFS{
	"standard.yaml": {Data: []byte(
		"game_name: bitstack\ngame_id: 1\nboard:\n  width: 10\n  max_height: 1000\nresettle: false\n")},
	"resettle.yaml": {Data: []byte(
		"game_name: bitstack_resettle\ngame_id: 2\nboard:\n  width: 10\n  max_height: 1000\nresettle: true\n")},
	"strict.yaml": {Data: []byte(
		"game_name: bitstack_strict\ngame_id: 3\nboard:\n  width: 4\n  max_height: 4\nresettle: false\n")},
}

func newTestLab(t *testing.T) *Stacklab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Configs(testCfgFS))
	if err != nil {
		t.Fatalf("NewAuto failed: %v", err)
	}
	return lab
}

func TestMachineRunLineClear(t *testing.T) {
	lab := newTestLab(t)
	m, err := lab.NewMachineWithSeed(1, 42, false)
	if err != nil {
		t.Fatalf("NewMachineWithSeed failed: %v", err)
	}
	// I 佔 0-3、I 佔 6-9、Q 佔 4-5 並疊到第 2 列 → 底列滿、消 1 行
	res, err := m.Run(&dto.RunRequest{GameName: "bitstack", GameId: 1, Line: "I0,I6,Q4"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Height != 1 || res.Cleared != 1 || res.Drops != 3 {
		t.Fatalf("got height=%d cleared=%d drops=%d, want 1/1/3", res.Height, res.Cleared, res.Drops)
	}
	if len(res.Rows) != 1 || res.Rows[0] != 0b0000110000 {
		t.Fatalf("rows = %v, want [0b0000110000]", res.Rows)
	}
	if res.BoardB64U == "" {
		t.Fatal("board snapshot missing")
	}
}

func TestMachineRunValidation(t *testing.T) {
	lab := newTestLab(t)
	m, err := lab.NewMachineWithSeed(1, 42, false)
	if err != nil {
		t.Fatalf("NewMachineWithSeed failed: %v", err)
	}
	if _, err := m.Run(&dto.RunRequest{GameName: "bitstack", GameId: 2, Line: "I0"}); err == nil {
		t.Fatal("mismatched game id accepted")
	}
	if _, err := m.Run(&dto.RunRequest{GameName: "nope", GameId: 1, Line: "I0"}); err == nil {
		t.Fatal("mismatched game name accepted")
	}
	if _, err := m.Run(&dto.RunRequest{GameName: "bitstack", GameId: 1, Line: "I9"}); err == nil {
		t.Fatal("out-of-bounds drop accepted")
	}
}

func TestResettleDivergence(t *testing.T) {
	lab := newTestLab(t)
	const line = "Q0,I2,I6,I0,I6,I6,Q2,Q4"

	std, err := lab.NewMachineWithSeed(1, 7, false)
	if err != nil {
		t.Fatalf("standard machine: %v", err)
	}
	r1, err := std.Run(&dto.RunRequest{GameName: "bitstack", GameId: 1, Line: line})
	if err != nil {
		t.Fatalf("standard run: %v", err)
	}
	if r1.Height != 3 {
		t.Fatalf("standard height = %d, want 3", r1.Height)
	}

	rs, err := lab.NewMachineWithSeed(2, 7, false)
	if err != nil {
		t.Fatalf("resettle machine: %v", err)
	}
	r2, err := rs.Run(&dto.RunRequest{GameName: "bitstack_resettle", GameId: 2, Line: line})
	if err != nil {
		t.Fatalf("resettle run: %v", err)
	}
	if r2.Height != 1 {
		t.Fatalf("resettle height = %d, want 1", r2.Height)
	}
}

func TestMachineRunStartRows(t *testing.T) {
	lab := newTestLab(t)
	m, err := lab.NewMachineWithSeed(1, 42, false)
	if err != nil {
		t.Fatalf("NewMachineWithSeed failed: %v", err)
	}
	first, err := m.Run(&dto.RunRequest{GameName: "bitstack", GameId: 1, Line: "Q0"})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Height != 2 {
		t.Fatalf("first height = %d, want 2", first.Height)
	}
	// 帶入上一局棋盤快照，繼續往上疊
	second, err := m.Run(&dto.RunRequest{
		GameName: "bitstack", GameId: 1, Line: "Q0", BoardB64U: first.BoardB64U,
	})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Height != 4 {
		t.Fatalf("second height = %d, want 4", second.Height)
	}
}

func TestRuntimeRun(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("BuildRuntime failed: %v", err)
	}
	ctx := context.Background()

	res, err := rt.Run(ctx, &dto.RunRequest{GameName: "bitstack", GameId: 1, Line: "Q0,Q2"})
	if err != nil {
		t.Fatalf("runtime run: %v", err)
	}
	if res.Height != 2 {
		t.Fatalf("height = %d, want 2", res.Height)
	}

	if _, err := rt.Run(ctx, &dto.RunRequest{GameName: "x", GameId: 99, Line: "Q0"}); err == nil {
		t.Fatal("unknown gid accepted")
	}

	ms := rt.Metrics()
	if len(ms) != 3 {
		t.Fatalf("metrics len = %d, want 3", len(ms))
	}
	for _, m := range ms {
		if m.PoolSize != 2 {
			t.Fatalf("pool size = %d, want 2", m.PoolSize)
		}
	}

	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("closed=%v reason=%q", rt.Closed(), rt.ClosedReason())
	}
	if _, err := rt.Run(ctx, &dto.RunRequest{GameName: "bitstack", GameId: 1, Line: "Q0"}); err == nil {
		t.Fatal("closed runtime accepted run")
	}
}

func TestMachinePoolFatalRebuild(t *testing.T) {
	lab := newTestLab(t)
	gs, err := lab.GameSettingById(3)
	if err != nil {
		t.Fatalf("GameSettingById failed: %v", err)
	}
	mp, err := newMachinePool(1, gs, core.Default(), 7)
	if err != nil {
		t.Fatalf("newMachinePool failed: %v", err)
	}
	ctx := context.Background()

	// 第三顆 Q 會超過 max_height=4 → fatal，機台送修並補機
	_, err = mp.Run(ctx, &dto.RunRequest{GameName: "bitstack_strict", GameId: 3, Line: "Q0,Q0,Q0"})
	if err == nil {
		t.Fatal("height limit not reported")
	}
	if !isFatalErr(err) {
		t.Fatalf("height limit should be fatal, got %v", err)
	}
	if mp.Fatals() != 1 || mp.ReBuild() != 1 {
		t.Fatalf("fatals=%d rebuild=%d, want 1/1", mp.Fatals(), mp.ReBuild())
	}

	// 補機後 pool 照常服務；I 填滿寬度 4 的底列 → 消行、疊高 0
	res, err := mp.Run(ctx, &dto.RunRequest{GameName: "bitstack_strict", GameId: 3, Line: "I0"})
	if err != nil {
		t.Fatalf("run after rebuild: %v", err)
	}
	if res.Height != 0 || res.Cleared != 1 {
		t.Fatalf("got height=%d cleared=%d, want 0/1", res.Height, res.Cleared)
	}

	// 非致命錯誤（越界落子）不淘汰機台
	if _, err := mp.Run(ctx, &dto.RunRequest{GameName: "bitstack_strict", GameId: 3, Line: "I1"}); err == nil {
		t.Fatal("out-of-bounds drop accepted")
	}
	if mp.ReBuild() != 1 {
		t.Fatalf("warn error triggered rebuild: %d", mp.ReBuild())
	}
}

func TestSimulatorDeterminism(t *testing.T) {
	lab := newTestLab(t)
	s1, err := lab.NewSimulatorWithSeed(1, 12345)
	if err != nil {
		t.Fatalf("simulator 1: %v", err)
	}
	s2, err := lab.NewSimulatorWithSeed(1, 12345)
	if err != nil {
		t.Fatalf("simulator 2: %v", err)
	}
	st1, _, err := s1.SimRand(200, 30, false)
	if err != nil {
		t.Fatalf("sim 1: %v", err)
	}
	st2, _, err := s2.SimRand(200, 30, false)
	if err != nil {
		t.Fatalf("sim 2: %v", err)
	}
	if st1.Summary.Lines != 200 || st2.Summary.Lines != 200 {
		t.Fatalf("lines = %d/%d, want 200", st1.Summary.Lines, st2.Summary.Lines)
	}
	if st1.Summary.MeanHeight != st2.Summary.MeanHeight || st1.Summary.TotalCleared != st2.Summary.TotalCleared {
		t.Fatalf("same seed diverged: mean %v vs %v", st1.Summary.MeanHeight, st2.Summary.MeanHeight)
	}
}

func TestSimulatorMP(t *testing.T) {
	lab := newTestLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 999)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, _, err := s.SimRandMP(50, 30, 4, false)
	if err != nil {
		t.Fatalf("sim mp: %v", err)
	}
	if st.Summary.Lines != 200 {
		t.Fatalf("lines = %d, want 200", st.Summary.Lines)
	}
}

func TestSimulatorGivenLines(t *testing.T) {
	lab := newTestLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 1)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	lines := make([][]buf.Drop, 0, 2)
	for _, raw := range []string{"I0,I6,Q4", "Q0"} {
		ds, err := parse.LineInto(raw, 10, nil)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		lines = append(lines, ds)
	}
	st, _, err := s.Sim(lines, false)
	if err != nil {
		t.Fatalf("run lines: %v", err)
	}
	if st.Summary.Lines != 2 || st.Summary.TotalCleared != 1 {
		t.Fatalf("lines=%d cleared=%d, want 2/1", st.Summary.Lines, st.Summary.TotalCleared)
	}
	if st.Summary.MinHeight != 1 || st.Summary.MaxHeight != 2 {
		t.Fatalf("min=%d max=%d, want 1/2", st.Summary.MinHeight, st.Summary.MaxHeight)
	}

	// 平行版結果必須與單線版一致（落子是給定的，平行只是加速）
	mp, _, err := s.SimMP(lines, 2, false)
	if err != nil {
		t.Fatalf("run lines mp: %v", err)
	}
	if mp.Summary.Lines != st.Summary.Lines || mp.Summary.MeanHeight != st.Summary.MeanHeight {
		t.Fatalf("mp diverged: lines=%d mean=%v", mp.Summary.Lines, mp.Summary.MeanHeight)
	}
}

func TestSimulatorEstimator(t *testing.T) {
	lab := newTestLab(t)
	s, err := lab.NewSimulatorWithSeed(1, 4242)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, est, _, err := s.SimRandEst(100, 20, 2, false)
	if err != nil {
		t.Fatalf("sim est: %v", err)
	}
	if st.Summary.Lines != 200 {
		t.Fatalf("lines = %d, want 200", st.Summary.Lines)
	}
	if est == nil || est.Lines != 200 {
		t.Fatalf("estimator lines mismatch: %+v", est)
	}
}

func TestDevSimulatorDrops(t *testing.T) {
	lab := newTestLab(t)
	dev, err := lab.NewDevSimulator(1, 99)
	if err != nil {
		t.Fatalf("NewDevSimulator failed: %v", err)
	}
	rep, err := dev.Drops("I0,I6,Q4")
	if err != nil {
		t.Fatalf("Drops failed: %v", err)
	}
	if rep.Height != 1 || rep.Cleared != 1 || rep.Drops != 3 {
		t.Fatalf("got height=%d cleared=%d drops=%d, want 1/1/3", rep.Height, rep.Cleared, rep.Drops)
	}
	if len(rep.Heights) != 3 {
		t.Fatalf("heights len = %d, want 3", len(rep.Heights))
	}

	// 以 before 快照重放，結果必須一致
	replay, err := dev.RestoreDrops(rep.Before, "I0,I6,Q4")
	if err != nil {
		t.Fatalf("RestoreDrops failed: %v", err)
	}
	if replay.After != rep.After || replay.Height != rep.Height {
		t.Fatalf("replay diverged: %q vs %q", replay.After, rep.After)
	}
}

func TestDevSimulatorSim(t *testing.T) {
	lab := newTestLab(t)
	dev, err := lab.NewDevSimulator(1, 99)
	if err != nil {
		t.Fatalf("NewDevSimulator failed: %v", err)
	}
	rep, err := dev.Sim(100, 20)
	if err != nil {
		t.Fatalf("Sim failed: %v", err)
	}
	if rep.Stat == nil || rep.Stat.Summary.Lines != 100 {
		t.Fatalf("stat lines mismatch: %+v", rep.Stat)
	}
	if rep.Before == "" || rep.Before == rep.After {
		t.Fatalf("core snapshot did not advance: before=%q after=%q", rep.Before, rep.After)
	}

	// 用 before 快照重放可重現同一份統計
	replay, err := dev.RestoreSim(rep.Before, 100, 20)
	if err != nil {
		t.Fatalf("RestoreSim failed: %v", err)
	}
	if replay.Stat.Summary.MeanHeight != rep.Stat.Summary.MeanHeight {
		t.Fatalf("replay mean = %v, want %v", replay.Stat.Summary.MeanHeight, rep.Stat.Summary.MeanHeight)
	}
	if replay.After != rep.After {
		t.Fatal("replay after snapshot diverged")
	}
}

func TestSeedMaker(t *testing.T) {
	a := newSeedMaker(1)
	b := newSeedMaker(1)
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		va, vb := a.next(), b.next()
		if va != vb {
			t.Fatalf("seed makers diverged at %d: %d vs %d", i, va, vb)
		}
		if va < 0 {
			t.Fatalf("negative seed: %d", va)
		}
		if seen[va] {
			t.Fatalf("seed repeated early: %d", va)
		}
		seen[va] = true
	}
}

func TestRegisterAllRejectsDuplicates(t *testing.T) {
	dup := fstest.MapFS{
		"a.yaml": {Data: []byte(
			"game_name: twin\ngame_id: 1\nboard:\n  width: 10\n  max_height: 1000\nresettle: false\n")},
		"b.yaml": {Data: []byte(
			"game_name: twin2\ngame_id: 1\nboard:\n  width: 10\n  max_height: 1000\nresettle: false\n")},
	}
	_, err := NewAuto(core.Default(), Configs(dup))
	if err == nil || !strings.Contains(err.Error(), "duplicate game id") {
		t.Fatalf("duplicate gid not rejected: %v", err)
	}
}
