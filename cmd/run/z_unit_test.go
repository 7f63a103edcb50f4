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

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zintix-labs/stacklab"
	"github.com/zintix-labs/stacklab/demo/demo_configs"
	"github.com/zintix-labs/stacklab/recorder"
	"github.com/zintix-labs/stacklab/sdk/core"
)

func newBatchMachine(t *testing.T) (*stacklab.Machine, int) {
	t.Helper()
	lab, err := stacklab.NewAuto(core.Default(), stacklab.Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("NewAuto failed: %v", err)
	}
	gs, err := lab.GameSettingById(1001)
	if err != nil {
		t.Fatalf("GameSettingById failed: %v", err)
	}
	m, err := lab.NewMachineWithSeed(1001, 1, true)
	if err != nil {
		t.Fatalf("NewMachineWithSeed failed: %v", err)
	}
	return m, gs.Board.Width
}

func TestRunBatchLines(t *testing.T) {
	m, width := newBatchMachine(t)
	in := strings.NewReader("I0,I6,Q4\nQ0\nQ0,Q0\n")
	out := new(bytes.Buffer)
	if err := runBatchLines(m, width, in, out, nil); err != nil {
		t.Fatalf("runBatchLines failed: %v", err)
	}
	if got := out.String(); got != "1\n2\n4\n" {
		t.Fatalf("output = %q, want %q", got, "1\n2\n4\n")
	}
}

// 空白行也是一局：輸出 0，行數與輸入一一對應。
func TestRunBatchLinesEmptyLine(t *testing.T) {
	m, width := newBatchMachine(t)
	in := strings.NewReader("I0,I6,Q4\n\nQ0\n")
	out := new(bytes.Buffer)

	rec, err := recorder.NewRunRecorder("batch", 1001, 1000)
	if err != nil {
		t.Fatalf("NewRunRecorder failed: %v", err)
	}
	if err := runBatchLines(m, width, in, out, rec); err != nil {
		t.Fatalf("runBatchLines failed: %v", err)
	}
	if got := out.String(); got != "1\n0\n2\n" {
		t.Fatalf("output = %q, want %q", got, "1\n0\n2\n")
	}

	st := rec.Done()
	if st.Summary.Lines != 3 || st.Summary.ZeroLines != 1 {
		t.Fatalf("lines=%d zero=%d, want 3/1", st.Summary.Lines, st.Summary.ZeroLines)
	}
}

func TestRunBatchLinesBadLine(t *testing.T) {
	m, width := newBatchMachine(t)
	in := strings.NewReader("I0\nI9\n")
	out := new(bytes.Buffer)
	err := runBatchLines(m, width, in, out, nil)
	if err == nil {
		t.Fatal("out-of-bounds line accepted")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want line number 2", err)
	}
}
