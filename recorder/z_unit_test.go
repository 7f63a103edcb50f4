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

package recorder_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/zintix-labs/stacklab/recorder"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/spec"
)

func record(t *testing.T, r *recorder.RunRecorder, heights ...int) {
	t.Helper()
	for _, h := range heights {
		r.Record(&buf.RunResult{
			GameName: r.GameName,
			GameId:   r.GameId,
			Height:   h,
			Drops:    10,
			Cleared:  1,
		})
	}
}

func TestRunRecorderBasic(t *testing.T) {
	r, err := recorder.NewRunRecorder("TestGame", spec.GID(1001), 1000)
	if err != nil {
		t.Fatalf("NewRunRecorder failed: %v", err)
	}
	record(t, r, 0, 2, 4, 4, 10)

	if r.Basic.Lines != 5 || r.Basic.TotalDrops != 50 || r.Basic.TotalCleared != 5 {
		t.Fatalf("basic counters wrong: %+v", r.Basic)
	}
	if r.Basic.ZeroLines != 1 {
		t.Fatalf("zero lines = %d, want 1", r.Basic.ZeroLines)
	}
	if r.Basic.MaxHeight != 10 || r.Basic.MinHeight != 0 {
		t.Fatalf("max/min = %d/%d, want 10/0", r.Basic.MaxHeight, r.Basic.MinHeight)
	}
	if r.Basic.HeightSum != 20 {
		t.Fatalf("height sum = %d, want 20", r.Basic.HeightSum)
	}

	rep := r.Done()
	if got := rep.Mean(); math.Abs(got-4.0) > 1e-12 {
		t.Fatalf("mean = %.3f, want 4", got)
	}
	if rep.Summary.P50 != 4 {
		t.Fatalf("P50 = %d, want 4", rep.Summary.P50)
	}
	if rep.Summary.P99 != 10 {
		t.Fatalf("P99 = %d, want 10", rep.Summary.P99)
	}

	rep.Done()
	total := 0
	for _, c := range rep.Dist.HeightCollect {
		total += c
	}
	if total != 5 {
		t.Fatalf("distribution total = %d, want 5", total)
	}
}

func TestRunRecorderInvalid(t *testing.T) {
	if _, err := recorder.NewRunRecorder("", spec.GID(1), 1000); err == nil {
		t.Fatalf("empty name should be rejected")
	}
	if _, err := recorder.NewRunRecorder("g", spec.GID(1), 0); err == nil {
		t.Fatalf("zero max height should be rejected")
	}
}

func TestMergeRunRecorder(t *testing.T) {
	a, _ := recorder.NewRunRecorder("TestGame", spec.GID(1), 1000)
	b, _ := recorder.NewRunRecorder("TestGame", spec.GID(1), 1000)
	record(t, a, 1, 3)
	record(t, b, 5, 7)

	m, err := recorder.MergeRunRecorder([]*recorder.RunRecorder{a, b})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if m.Basic.Lines != 4 || m.Basic.HeightSum != 16 {
		t.Fatalf("merged counters wrong: %+v", m.Basic)
	}
	if m.Basic.MaxHeight != 7 || m.Basic.MinHeight != 1 {
		t.Fatalf("merged max/min = %d/%d, want 7/1", m.Basic.MaxHeight, m.Basic.MinHeight)
	}

	c, _ := recorder.NewRunRecorder("Other", spec.GID(1), 1000)
	if _, err := recorder.MergeRunRecorder([]*recorder.RunRecorder{a, c}); err == nil {
		t.Fatalf("different game name should be rejected")
	}
	d, _ := recorder.NewRunRecorder("TestGame", spec.GID(1), 500)
	if _, err := recorder.MergeRunRecorder([]*recorder.RunRecorder{a, d}); err == nil {
		t.Fatalf("different max height should be rejected")
	}
}

func TestHeightsExpansion(t *testing.T) {
	r, _ := recorder.NewRunRecorder("TestGame", spec.GID(1), 1000)
	record(t, r, 3, 0, 3, 7)

	hs := r.Heights()
	if len(hs) != 4 {
		t.Fatalf("heights length = %d, want 4", len(hs))
	}
	// 展開結果依疊高升冪
	want := []int{0, 3, 3, 7}
	for i, h := range hs {
		if h != want[i] {
			t.Fatalf("heights[%d] = %d, want %d", i, h, want[i])
		}
	}
}

func TestReplayRoundtrip(t *testing.T) {
	results := []*buf.RunResult{
		{GameName: "TestGame", GameId: 1, Height: 2, Drops: 8, Cleared: 1, Rows: []uint16{0b11, 0b01}},
		{GameName: "TestGame", GameId: 1, Height: 0, Drops: 5, Cleared: 2},
	}

	var b bytes.Buffer
	if err := recorder.SaveReplay(&b, results); err != nil {
		t.Fatalf("SaveReplay failed: %v", err)
	}

	got, err := recorder.LoadReplay(&b)
	if err != nil {
		t.Fatalf("LoadReplay failed: %v", err)
	}
	if len(got) != len(results) {
		t.Fatalf("replay length = %d, want %d", len(got), len(results))
	}
	for i, r := range got {
		w := results[i]
		if r.GameName != w.GameName || r.Height != w.Height || r.Drops != w.Drops || r.Cleared != w.Cleared {
			t.Fatalf("replay[%d] = %+v, want %+v", i, r, w)
		}
		if len(r.Rows) != len(w.Rows) {
			t.Fatalf("replay[%d] rows length mismatch", i)
		}
		for j := range r.Rows {
			if r.Rows[j] != w.Rows[j] {
				t.Fatalf("replay[%d] row %d = %d, want %d", i, j, r.Rows[j], w.Rows[j])
			}
		}
	}
}
