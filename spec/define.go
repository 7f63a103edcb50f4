package spec

// GID 遊戲設定檔的唯一識別碼。
type GID uint

const (
	// DefaultBoardWidth 預設棋盤寬度（標準規則為 10 欄）。
	DefaultBoardWidth = 10

	// DefaultMaxHeight 預設疊高上限，超過即視為該局失敗。
	DefaultMaxHeight = 1000

	// MaxBoardWidth 棋盤寬度上限。每一列以 uint16 bitmask 表示，
	// 因此寬度不可超過 16。
	MaxBoardWidth = 16

	// MinBoardWidth 棋盤寬度下限，最寬的棋子（I）佔 4 欄。
	MinBoardWidth = 4

	// MinMaxHeight 疊高上限的下限。單一棋子最高佔 3 列，
	// 上限太小的棋盤連一手都放不下。
	MinMaxHeight = 4
)
