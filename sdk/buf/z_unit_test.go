package buf

import (
	"errors"
	"testing"

	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

func TestDropValid(t *testing.T) {
	if err := (Drop{Piece: piece.Q, X: 0}).Valid(); err != nil {
		t.Fatalf("valid drop rejected: %v", err)
	}
	err := (Drop{X: 3}).Valid()
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
}

func TestRunResultReset(t *testing.T) {
	gs := &spec.GameSetting{GameName: "standard", GameID: 1001}
	r := NewRunResult(gs)
	r.Height = 5
	r.Drops = 3
	r.Cleared = 2
	r.Rows = append(r.Rows, 0b11, 0b01)
	r.Reset()
	if r.Height != 0 || r.Drops != 0 || r.Cleared != 0 || len(r.Rows) != 0 {
		t.Fatalf("reset incomplete: %+v", r)
	}
	if r.GameName != "standard" || r.GameId != 1001 {
		t.Fatalf("reset must keep identity: %+v", r)
	}
}
