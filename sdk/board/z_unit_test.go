package board

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/zintix-labs/stacklab/errs"
	"github.com/zintix-labs/stacklab/sdk/piece"
	"github.com/zintix-labs/stacklab/spec"
)

func mustBoard(t *testing.T, resettle bool) *Board {
	t.Helper()
	b, err := New(spec.BoardSetting{}, resettle)
	if err != nil {
		t.Fatalf("New board failed: %v", err)
	}
	return b
}

// dropSeq 以 "Q0,I2,..." 形式餵入一串棋子，回傳最終疊高。
func dropSeq(t *testing.T, b *Board, seq string) int {
	t.Helper()
	h := 0
	for _, tok := range strings.Split(seq, ",") {
		tok = strings.TrimSpace(tok)
		p, err := piece.FromLetter(tok[:1])
		if err != nil {
			t.Fatalf("bad piece in %q: %v", tok, err)
		}
		x, err := strconv.Atoi(tok[1:])
		if err != nil {
			t.Fatalf("bad column in %q: %v", tok, err)
		}
		h, err = b.Drop(p, x)
		if err != nil {
			t.Fatalf("drop %q failed: %v", tok, err)
		}
	}
	return h
}

func TestEmptyBoard(t *testing.T) {
	b := mustBoard(t, false)
	if h := b.Height(); h != 0 {
		t.Fatalf("fresh board height = %d, want 0", h)
	}
	if rows := b.Rows(); rows != nil {
		t.Fatalf("fresh board rows = %v, want nil", rows)
	}
	if b.Width() != spec.DefaultBoardWidth || b.MaxHeight() != spec.DefaultMaxHeight {
		t.Fatalf("defaults not applied: width=%d max=%d", b.Width(), b.MaxHeight())
	}
}

func TestSinglePieceHeights(t *testing.T) {
	cases := []struct {
		seq  string
		want int
	}{
		{"I0", 1}, {"I6", 1},
		{"Q0", 2}, {"O4", 2}, {"Q8", 2},
		{"T0", 2}, {"T7", 2},
		{"Z0", 2}, {"S0", 2},
		{"L0", 3}, {"J0", 3},
	}
	for _, c := range cases {
		b := mustBoard(t, false)
		if h := dropSeq(t, b, c.seq); h != c.want {
			t.Fatalf("%s height = %d, want %d", c.seq, h, c.want)
		}
	}
}

func TestStacking(t *testing.T) {
	cases := []struct {
		seq  string
		want int
	}{
		{"Q0,Q0", 4},
		{"I0,I0", 2},
		{"T0,T0", 4},
		{"I0,I4,I6", 2}, // 第三個 I 與前兩個在 6,7 欄重疊，疊到第二層
	}
	for _, c := range cases {
		b := mustBoard(t, false)
		if h := dropSeq(t, b, c.seq); h != c.want {
			t.Fatalf("%s height = %d, want %d", c.seq, h, c.want)
		}
	}
}

func TestSequences(t *testing.T) {
	cases := []struct {
		seq  string
		want int
	}{
		{"T1,Z3,I4", 4},
		{"I0,I4,Q8", 1},
		{"Q0,Q2,Q4,Q6,Q8", 0},
		{"Q0,I2,I6,I0,I6,I6,Q2,Q4", 3},
		{"T0,J3,L5,Z1,Q8,I0,I6,S4,T2", 7},
		{"I0,I6,Q4", 1}, // 底列補滿後只剩 Q 的上半
		{"I0,I5", 1},    // 4 與 9 欄留空，不消行
		{"T0,T3", 2},
		{"S0,Z3", 2},
		{"L0,J2", 3},
	}
	for _, c := range cases {
		b := mustBoard(t, false)
		if h := dropSeq(t, b, c.seq); h != c.want {
			t.Fatalf("%s height = %d, want %d", c.seq, h, c.want)
		}
	}
}

func TestMultiLineClearSinglePass(t *testing.T) {
	b := mustBoard(t, false)
	if h := dropSeq(t, b, "Q0,Q2,Q4,Q6,Q8"); h != 0 {
		t.Fatalf("height = %d, want 0", h)
	}
	if b.Cleared() != 2 {
		t.Fatalf("cleared = %d, want 2", b.Cleared())
	}
}

func TestClearKeepsRowOrder(t *testing.T) {
	b := mustBoard(t, false)
	// 消掉 row1 後，上方的 Q 頂端依原順序往下遞補
	dropSeq(t, b, "Q0,I2,I6,I0,I6,I6,Q2,Q4")
	rows := b.Rows()
	want := []uint16{0b1111110011, 0b0000001100, 0b0000001100}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("rows[%d] = %010b, want %010b", i, rows[i], want[i])
		}
	}
}

func TestResettleDivergence(t *testing.T) {
	const seq = "Q0,I2,I6,I0,I6,I6,Q2,Q4"

	normal := mustBoard(t, false)
	if h := dropSeq(t, normal, seq); h != 3 {
		t.Fatalf("normal height = %d, want 3", h)
	}
	if normal.Cleared() != 2 {
		t.Fatalf("normal cleared = %d, want 2", normal.Cleared())
	}

	rs := mustBoard(t, true)
	if h := dropSeq(t, rs, seq); h != 1 {
		t.Fatalf("resettle height = %d, want 1", h)
	}
	// 重落後懸空的 Q 落到底、再次補滿消行，只剩 Q 底部那一列
	rows := rs.Rows()
	if len(rows) != 1 || rows[0] != 0b0000001100 {
		t.Fatalf("resettle rows = %v, want [0b0000001100]", rows)
	}
	if rs.Cleared() != 3 {
		t.Fatalf("resettle cleared = %d, want 3", rs.Cleared())
	}
}

func TestResettleSameAsNormalWhenNoFloat(t *testing.T) {
	// 沒有懸空殘塊時，重落不得改變結果
	for _, seq := range []string{"I0,I6,Q4", "Q0,Q2,Q4,Q6,Q8", "T1,Z3,I4"} {
		a := mustBoard(t, false)
		b := mustBoard(t, true)
		ha := dropSeq(t, a, seq)
		hb := dropSeq(t, b, seq)
		if ha != hb {
			t.Fatalf("%s: normal %d != resettle %d", seq, ha, hb)
		}
	}
}

func TestOutOfBoundsRejected(t *testing.T) {
	for _, seq := range []string{"J9", "I7", "Q9", "T8", "Z8", "S8", "L9"} {
		b := mustBoard(t, false)
		p, _ := piece.FromLetter(seq[:1])
		x, _ := strconv.Atoi(seq[1:])
		_, err := b.Drop(p, x)
		if err == nil {
			t.Fatalf("%s expected error", seq)
		}
		if !errors.Is(err, piece.ErrOutOfBounds) {
			t.Fatalf("%s err = %v, want ErrOutOfBounds", seq, err)
		}
		if b.Height() != 0 {
			t.Fatalf("%s: failed drop must not mutate board", seq)
		}
	}
	// 每種棋子的最右合法落點要成功
	for _, seq := range []string{"J8", "I6", "Q8", "T7", "Z7", "S7", "L8"} {
		b := mustBoard(t, false)
		dropSeq(t, b, seq)
	}
}

func TestNegativeColumnRejected(t *testing.T) {
	b := mustBoard(t, false)
	if _, err := b.Drop(piece.I, -1); !errors.Is(err, piece.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestInvalidPieceRejected(t *testing.T) {
	b := mustBoard(t, false)
	if _, err := b.Drop(piece.None, 0); !errors.Is(err, piece.ErrInvalidPiece) {
		t.Fatalf("err = %v, want ErrInvalidPiece", err)
	}
}

func TestHeightLimit(t *testing.T) {
	b, err := New(spec.BoardSetting{MaxHeight: 10}, false)
	if err != nil {
		t.Fatalf("New board failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := b.Drop(piece.Q, 4); err != nil {
			t.Fatalf("drop %d failed: %v", i, err)
		}
	}
	if b.Height() != 10 {
		t.Fatalf("height = %d, want 10", b.Height())
	}
	_, err = b.Drop(piece.Q, 4)
	if !errors.Is(err, ErrHeightLimit) {
		t.Fatalf("err = %v, want ErrHeightLimit", err)
	}
	if e, ok := errs.AsErr(err); !ok || e.ErrLv != errs.Fatal {
		t.Fatalf("height limit must be fatal, got %v", err)
	}
	if b.Height() != 10 {
		t.Fatalf("failed drop must not mutate board, height = %d", b.Height())
	}
}

func TestIndependentBoards(t *testing.T) {
	a := mustBoard(t, false)
	b := mustBoard(t, false)
	if h := dropSeq(t, a, "Q0,Q2"); h != 2 {
		t.Fatalf("board a height = %d, want 2", h)
	}
	if h := dropSeq(t, b, "I0"); h != 1 {
		t.Fatalf("board b height = %d, want 1", h)
	}
}

func TestDeterminism(t *testing.T) {
	const seq = "T0,J3,L5,Z1,Q8,I0,I6,S4,T2"
	a := mustBoard(t, true)
	b := mustBoard(t, true)
	if dropSeq(t, a, seq) != dropSeq(t, b, seq) {
		t.Fatalf("heights diverged")
	}
	ra, rb := a.Rows(), b.Rows()
	if len(ra) != len(rb) {
		t.Fatalf("row counts diverged: %d != %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("rows[%d] diverged: %010b != %010b", i, ra[i], rb[i])
		}
	}
}

func TestReset(t *testing.T) {
	b := mustBoard(t, false)
	dropSeq(t, b, "I0,I6,Q4")
	b.Reset()
	if b.Height() != 0 || b.Cleared() != 0 {
		t.Fatalf("reset did not clear state: h=%d cleared=%d", b.Height(), b.Cleared())
	}
	if h := dropSeq(t, b, "I0"); h != 1 {
		t.Fatalf("board unusable after reset: h=%d", h)
	}
}

func TestSetRows(t *testing.T) {
	b := mustBoard(t, false)
	if err := b.SetRows([]uint16{0b1111, 0b0011, 0, 0}); err != nil {
		t.Fatalf("SetRows failed: %v", err)
	}
	// 尾端空列要被修掉
	if b.Height() != 2 {
		t.Fatalf("height = %d, want 2", b.Height())
	}
	// 超出寬度的 bit
	if err := b.SetRows([]uint16{1 << 10}); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("err = %v, want ErrBadSnapshot", err)
	}
	// 超過疊高上限
	tall := make([]uint16, spec.DefaultMaxHeight+1)
	if err := b.SetRows(tall); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("err = %v, want ErrBadSnapshot", err)
	}
	// 失敗不得改變原內容
	if b.Height() != 2 {
		t.Fatalf("failed SetRows mutated board: h=%d", b.Height())
	}
}

func TestNarrowBoard(t *testing.T) {
	// 寬度 4 的棋盤：一個 I 即滿行
	b, err := New(spec.BoardSetting{Width: 4}, false)
	if err != nil {
		t.Fatalf("New board failed: %v", err)
	}
	h, err := b.Drop(piece.I, 0)
	if err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if h != 0 || b.Cleared() != 1 {
		t.Fatalf("h=%d cleared=%d, want 0/1", h, b.Cleared())
	}
	if _, err := b.Drop(piece.I, 1); !errors.Is(err, piece.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestBadSettingRejected(t *testing.T) {
	if _, err := New(spec.BoardSetting{Width: 3}, false); err == nil {
		t.Fatalf("width 3 should be rejected")
	}
	if _, err := New(spec.BoardSetting{Width: 17}, false); err == nil {
		t.Fatalf("width 17 should be rejected")
	}
	if _, err := New(spec.BoardSetting{MaxHeight: 2}, false); err == nil {
		t.Fatalf("max_height 2 should be rejected")
	}
}
