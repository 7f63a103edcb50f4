package gen

import (
	"testing"

	"github.com/zintix-labs/stacklab/sdk/core"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

func newGen(t *testing.T, seed int64, fixed map[string]any) *DropGenerator {
	t.Helper()
	gs := &spec.GameSetting{GameName: "t", GameID: 1, Fixed: fixed}
	g, err := NewDropGenerator(core.New(core.NewPCG64WithSeed(seed)), gs)
	if err != nil {
		t.Fatalf("NewDropGenerator failed: %v", err)
	}
	return g
}

func TestLineBounds(t *testing.T) {
	g := newGen(t, 1, nil)
	for round := 0; round < 100; round++ {
		for _, d := range g.Line(50) {
			if !d.Piece.Valid() {
				t.Fatalf("invalid piece generated: %v", d.Piece)
			}
			if d.X < 0 || d.X+d.Piece.Width() > spec.DefaultBoardWidth {
				t.Fatalf("out of bounds drop generated: %v%d", d.Piece, d.X)
			}
		}
	}
}

func TestLineDeterministic(t *testing.T) {
	a := newGen(t, 42, nil)
	b := newGen(t, 42, nil)
	la, lb := a.Line(200), b.Line(200)
	for i := range la {
		if la[i] != lb[i] {
			t.Fatalf("sequence diverged at %d: %+v != %+v", i, la[i], lb[i])
		}
	}
}

func TestLineWeighted(t *testing.T) {
	g := newGen(t, 3, map[string]any{"piece_weights": map[string]any{"I": 1}})
	for _, d := range g.Line(500) {
		if d.Piece != piece.I {
			t.Fatalf("weighted generator produced %v, want only I", d.Piece)
		}
	}
}

func TestLineAliasMerged(t *testing.T) {
	// O 與 Q 權重合併到同一棋子
	g := newGen(t, 4, map[string]any{"piece_weights": map[string]any{"O": 1, "Q": 1}})
	for _, d := range g.Line(500) {
		if d.Piece != piece.Q {
			t.Fatalf("generator produced %v, want only Q", d.Piece)
		}
	}
}

func TestBadWeightsRejected(t *testing.T) {
	gs := &spec.GameSetting{GameName: "t", GameID: 1,
		Fixed: map[string]any{"piece_weights": map[string]any{"X": 1}}}
	if _, err := NewDropGenerator(core.New(core.NewPCG64WithSeed(1)), gs); err == nil {
		t.Fatalf("unknown letter should be rejected")
	}
	gs = &spec.GameSetting{GameName: "t", GameID: 1,
		Fixed: map[string]any{"piece_weights": map[string]any{"I": -1}}}
	if _, err := NewDropGenerator(core.New(core.NewPCG64WithSeed(1)), gs); err == nil {
		t.Fatalf("negative weight should be rejected")
	}
	gs = &spec.GameSetting{GameName: "t", GameID: 1,
		Fixed: map[string]any{"piece_weights": map[string]any{"I": 0, "Q": 0}}}
	if _, err := NewDropGenerator(core.New(core.NewPCG64WithSeed(1)), gs); err == nil {
		t.Fatalf("all-zero weights should be rejected")
	}
}
