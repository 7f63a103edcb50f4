package piece

import (
	"errors"
	"testing"
)

func TestFromLetter(t *testing.T) {
	cases := []struct {
		in   string
		want Piece
	}{
		{"I", I}, {"i", I},
		{"Q", Q}, {"q", Q},
		{"O", Q}, {"o", Q}, // O 是 Q 的別名
		{"T", T}, {"t", T},
		{"Z", Z}, {"z", Z},
		{"S", S}, {"s", S},
		{"L", L}, {"l", L},
		{"J", J}, {"j", J},
		{" q ", Q},
	}
	for _, c := range cases {
		got, err := FromLetter(c.in)
		if err != nil {
			t.Fatalf("FromLetter(%q) unexpected err: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("FromLetter(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFromLetterInvalid(t *testing.T) {
	for _, in := range []string{"", "X", "QQ", "1", "?"} {
		_, err := FromLetter(in)
		if err == nil {
			t.Fatalf("FromLetter(%q) expected error", in)
		}
		if !errors.Is(err, ErrInvalidPiece) {
			t.Fatalf("FromLetter(%q) err = %v, want ErrInvalidPiece", in, err)
		}
	}
}

func TestDimensions(t *testing.T) {
	cases := []struct {
		p    Piece
		w, h int
	}{
		{I, 4, 1},
		{Q, 2, 2},
		{T, 3, 2},
		{Z, 3, 2},
		{S, 3, 2},
		{L, 2, 3},
		{J, 2, 3},
	}
	for _, c := range cases {
		if c.p.Width() != c.w || c.p.Height() != c.h {
			t.Fatalf("%v dims = %dx%d, want %dx%d", c.p, c.p.Width(), c.p.Height(), c.w, c.h)
		}
	}
	if None.Width() != 0 || None.Height() != 0 {
		t.Fatalf("None should have zero dims")
	}
}

func TestEveryShapeHasFourBlocks(t *testing.T) {
	for _, p := range All() {
		seen := map[[2]int8]bool{}
		for _, b := range p.Blocks() {
			if b[0] < 0 || b[1] < 0 {
				t.Fatalf("%v has negative block coord %v", p, b)
			}
			if seen[b] {
				t.Fatalf("%v has duplicate block %v", p, b)
			}
			seen[b] = true
		}
		if len(seen) != 4 {
			t.Fatalf("%v has %d distinct blocks, want 4", p, len(seen))
		}
	}
}

func TestRowMasks(t *testing.T) {
	cases := []struct {
		p    Piece
		x    int
		want []uint16
	}{
		// I 在 x=0：單列 1111
		{I, 0, []uint16{0b1111}},
		// I 在 x=6：靠右 10 欄棋盤
		{I, 6, []uint16{0b1111000000}},
		// Q 在 x=4
		{Q, 4, []uint16{0b110000, 0b110000}},
		// T 在 x=1：底列只有中央格（欄 2），上列佔欄 1..3
		{T, 1, []uint16{0b100, 0b1110}},
		// Z 在 x=0：底列欄 1..2，上列欄 0..1
		{Z, 0, []uint16{0b110, 0b011}},
		// S 在 x=0：底列欄 0..1，上列欄 1..2
		{S, 0, []uint16{0b011, 0b110}},
		// L 在 x=0：底列欄 0..1，中、上列只有欄 0
		{L, 0, []uint16{0b11, 0b01, 0b01}},
		// J 在 x=0：底列欄 0..1，中、上列只有欄 1
		{J, 0, []uint16{0b11, 0b10, 0b10}},
	}
	var buf []uint16
	for _, c := range cases {
		got, err := c.p.RowMasks(c.x, 10, buf)
		if err != nil {
			t.Fatalf("%v.RowMasks(%d) unexpected err: %v", c.p, c.x, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("%v.RowMasks(%d) rows = %d, want %d", c.p, c.x, len(got), len(c.want))
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%v.RowMasks(%d)[%d] = %010b, want %010b", c.p, c.x, i, got[i], c.want[i])
			}
		}
		buf = got // 緩衝重用
	}
}

func TestRowMasksOutOfBounds(t *testing.T) {
	cases := []struct {
		p Piece
		x int
	}{
		{I, -1},
		{I, 7},  // 4 寬棋子最右只能放 x=6
		{Q, 9},  // 2 寬棋子最右只能放 x=8
		{T, 8},  // 3 寬棋子最右只能放 x=7
		{L, 9},
	}
	for _, c := range cases {
		_, err := c.p.RowMasks(c.x, 10, nil)
		if err == nil {
			t.Fatalf("%v.RowMasks(%d) expected error", c.p, c.x)
		}
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("%v.RowMasks(%d) err = %v, want ErrOutOfBounds", c.p, c.x, err)
		}
	}
	// 邊界內最右落點要成功
	if _, err := I.RowMasks(6, 10, nil); err != nil {
		t.Fatalf("I.RowMasks(6) unexpected err: %v", err)
	}
	if _, err := None.RowMasks(0, 10, nil); !errors.Is(err, ErrInvalidPiece) {
		t.Fatalf("None.RowMasks err = %v, want ErrInvalidPiece", err)
	}
}
