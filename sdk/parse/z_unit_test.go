package parse

import (
	"errors"
	"testing"

	"github.com/zintix-labs/stacklab/sdk/buf"
	"github.com/zintix-labs/stacklab/sdk/piece"
)

func TestLine(t *testing.T) {
	drops, err := Line("Q0,I4,T1")
	if err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	want := []buf.Drop{
		{Piece: piece.Q, X: 0},
		{Piece: piece.I, X: 4},
		{Piece: piece.T, X: 1},
	}
	if len(drops) != len(want) {
		t.Fatalf("drops = %d, want %d", len(drops), len(want))
	}
	for i := range want {
		if drops[i] != want[i] {
			t.Fatalf("drops[%d] = %+v, want %+v", i, drops[i], want[i])
		}
	}
}

func TestLineWhitespaceAndAlias(t *testing.T) {
	drops, err := Line(" o4 , q8 ")
	if err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	if len(drops) != 2 || drops[0].Piece != piece.Q || drops[0].X != 4 || drops[1].X != 8 {
		t.Fatalf("drops = %+v", drops)
	}
}

func TestLineEmptyTokensSkipped(t *testing.T) {
	drops, err := Line("Q0,,I4,")
	if err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	if len(drops) != 2 {
		t.Fatalf("drops = %d, want 2", len(drops))
	}
	drops, err = Line("")
	if err != nil || len(drops) != 0 {
		t.Fatalf("empty line: drops=%v err=%v", drops, err)
	}
}

func TestLineErrors(t *testing.T) {
	cases := []struct {
		line string
		want error
	}{
		{"X0", piece.ErrInvalidPiece},
		{"QQ1", piece.ErrInvalidPiece},
		{"Q", buf.ErrMissingInput},
		{"Q1x", piece.ErrInvalidPiece}, // 欄位存在但格式非法
		{"Qx", piece.ErrInvalidPiece},
		{"Q-1", piece.ErrOutOfBounds}, // 負欄位
		{"I7", piece.ErrOutOfBounds},
		{"Q9", piece.ErrOutOfBounds},
	}
	for _, c := range cases {
		_, err := Line(c.line)
		if err == nil {
			t.Fatalf("%q expected error", c.line)
		}
		if !errors.Is(err, c.want) {
			t.Fatalf("%q err = %v, want %v", c.line, err, c.want)
		}
	}
}

func TestLineIntoReuse(t *testing.T) {
	buf1, err := LineInto("Q0,I4", 10, nil)
	if err != nil {
		t.Fatalf("LineInto failed: %v", err)
	}
	buf2, err := LineInto("T1", 10, buf1)
	if err != nil {
		t.Fatalf("LineInto reuse failed: %v", err)
	}
	if len(buf2) != 1 || buf2[0].Piece != piece.T {
		t.Fatalf("reused buffer content wrong: %+v", buf2)
	}
}

func TestLineNarrowWidth(t *testing.T) {
	// 寬度 4：I 只能放 x=0
	if _, err := LineInto("I0", 4, nil); err != nil {
		t.Fatalf("I0 on width-4 board should parse: %v", err)
	}
	if _, err := LineInto("I1", 4, nil); !errors.Is(err, piece.ErrOutOfBounds) {
		t.Fatalf("I1 on width-4 board should be out of bounds")
	}
}
