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

package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/stacklab/corefmt"
	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/piece"
)

func TestDecodeRunRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/run?game=demo&gid=7&line=Q0,I2,I6", nil)
	req, err := DecodeRunRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameName != "demo" || req.GameId != 7 || req.Line != "Q0,I2,I6" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeRunRequestPOST(t *testing.T) {
	payload := map[string]any{
		"game": "demo",
		"gid":  9,
		"line": "T1,Z3,I4",
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(data))
	req, err := DecodeRunRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameId != 9 || req.Line != "T1,Z3,I4" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeRunRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"gid":1,"game":"demo","line":"Q0","unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(data))
	if _, err := DecodeRunRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestRunRequestParse(t *testing.T) {
	rr := &RunRequest{GameName: "demo", GameId: 1, Line: "Q0, I2 ,i6"}
	req, err := rr.Parse(10)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []buf.Drop{{Piece: piece.Q, X: 0}, {Piece: piece.I, X: 2}, {Piece: piece.I, X: 6}}
	if len(req.Drops) != len(want) {
		t.Fatalf("drops length = %d, want %d", len(req.Drops), len(want))
	}
	for i, d := range req.Drops {
		if d != want[i] {
			t.Fatalf("drops[%d] = %+v, want %+v", i, d, want[i])
		}
	}

	rr.Line = "I7"
	if _, err := rr.Parse(10); err == nil {
		t.Fatalf("out of bounds line should be rejected")
	}
}

func TestRunRequestStartRows(t *testing.T) {
	rr := &RunRequest{}
	rows, err := rr.StartRows()
	if err != nil || rows != nil {
		t.Fatalf("empty snap should yield nil rows: %v %v", rows, err)
	}

	want := []uint16{0b11, 0b01}
	rr.BoardB64U = corefmt.EncodeBase64URL(corefmt.EncodeRowsFrame(want))
	rows, err = rr.StartRows()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(rows) != 2 || rows[0] != want[0] || rows[1] != want[1] {
		t.Fatalf("rows = %v, want %v", rows, want)
	}

	rr.BoardB64U = "!!!"
	if _, err := rr.StartRows(); err == nil {
		t.Fatalf("bad base64url should be rejected")
	}
}

func TestNewRunResultDTO(t *testing.T) {
	src := &buf.RunResult{GameName: "demo", GameId: 3, Height: 2, Drops: 5, Cleared: 1, Rows: []uint16{0b1111, 0b0001}}
	dto, err := NewRunResultDTO(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Height != 2 || dto.Cleared != 1 || len(dto.Rows) != 2 {
		t.Fatalf("unexpected dto: %+v", dto)
	}

	// Rows 必須是深拷貝
	src.Rows[0] = 0
	if dto.Rows[0] != 0b1111 {
		t.Fatalf("dto rows alias the source buffer")
	}

	frame, err := corefmt.DecodeBase64URL(dto.BoardB64U)
	if err != nil {
		t.Fatalf("board snap not base64url: %v", err)
	}
	rows, err := corefmt.DecodeRowsFrame(frame)
	if err != nil || len(rows) != 2 || rows[0] != 0b1111 {
		t.Fatalf("board snap roundtrip failed: %v %v", rows, err)
	}

	if _, err := NewRunResultDTO(nil); err == nil {
		t.Fatalf("nil result should be rejected")
	}
}
