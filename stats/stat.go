package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/stacklab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// HeightReport 疊高統計報告
type HeightReport struct {
	Summary *SummaryReport `json:"Summary"`
	Moment  *MomentReport  `json:"Moment"`
	Dist    *DistReport    `json:"Dist"`
	isDone  bool
}

type SummaryReport struct {
	GameName     string   `json:"GameName"`
	GameId       spec.GID `json:"GameId"`
	Lines        int      `json:"Lines"`
	TotalDrops   int      `json:"TotalDrops"`
	TotalCleared int      `json:"TotalCleared"`
	ZeroLines    int      `json:"ZeroLines"`
	MaxHeight    int      `json:"MaxHeight"`
	MinHeight    int      `json:"MinHeight"`
	MeanHeight   float64  `json:"MeanHeight"`
	MeanCI       CI       `json:"MeanCI"`
	Std          float64  `json:"Std"`
	Cv           float64  `json:"Cv"`
	P50          int      `json:"P50"`
	P90          int      `json:"P90"`
	P99          int      `json:"P99"`
}

// MomentReport 疊高的動差累計
//
// 紀錄時不轉型，避免熱路徑成本。紀錄完成後 Done() 會將結果整理填入 Summary
type MomentReport struct {
	HeightSum   int     `json:"HeightSum"`
	HeightSqSum float64 `json:"HeightSqSum"` // 平方和
}

// DistReport 疊高區間落點統計
type DistReport struct {
	HeightBucket  []string  `json:"HeightBucket"`
	HeightCollect []int     `json:"HeightCollect"`
	HeightDist    []float64 `json:"HeightDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 所有紀錄過程因為性能原因只處理 int 的累計，統計完成後
// 請使用 Done 一次性計算平均、標準差、信賴區間與分布比例。
func (s *HeightReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.MeanHeight = s.Mean()
	s.Summary.Std = s.StdDev()
	s.Summary.Cv = s.Cv()
	s.Summary.MeanCI = s.Ci()

	// Dist
	if s.Dist != nil && s.Summary.Lines > 0 {
		lf := float64(s.Summary.Lines)
		dist := make([]float64, len(s.Dist.HeightCollect))
		for i, c := range s.Dist.HeightCollect {
			dist[i] = float64(c) / lf
		}
		s.Dist.HeightDist = dist
	}

	s.isDone = true
}

// Mean 回傳每局結束時疊高的平均值
func (s *HeightReport) Mean() float64 {
	if s.Summary.Lines == 0 {
		return 0
	}
	return float64(s.Moment.HeightSum) / float64(s.Summary.Lines)
}

// StdDev 回傳每局疊高的樣本標準差
func (s *HeightReport) StdDev() float64 {
	if s.Summary.Lines < 2 {
		return 0
	}
	lines := float64(s.Summary.Lines)
	sum := float64(s.Moment.HeightSum)

	variance := (s.Moment.HeightSqSum - sum*sum/lines) / (lines - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳每局疊高的變異係數
func (s *HeightReport) Cv() float64 {
	mean := s.Mean()
	std := s.StdDev()
	if mean <= 0 {
		return 0
	}
	return (std / mean)
}

// Ci 回傳(95% 平均疊高)信賴區間
func (s *HeightReport) Ci() CI {
	mean := s.Mean()
	std := s.StdDev()
	se := float64(0)
	if s.Summary.Lines > 1 {
		se = std / math.Sqrt(float64(s.Summary.Lines))
	}
	ci := CI{
		Lo: max(mean-1.96*se, 0.0),
		Hi: mean + 1.96*se,
	}
	return ci
}

func (s *HeightReport) WriteWith(w io.Writer, rep HeightReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *HeightReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Lines)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.GameName, sk, sm)
	fmt.Println(str)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, lines int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	lps := int(float64(lines) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nlps : %d lines/sec\n", sec, lps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\nlps : %d lines/sec\n", m, s, lps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nlps : %d lines/sec\n", h, m, s, lps)
}

// StdOut

func (s *HeightReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Game Name":     p.Sprintf("%s", s.Summary.GameName),
		"Game ID":       fmt.Sprintf("%d", s.Summary.GameId),
		"Total Lines":   p.Sprintf("%d", s.Summary.Lines),
		"Total Drops":   p.Sprintf("%d", s.Summary.TotalDrops),
		"Total Cleared": p.Sprintf("%d", s.Summary.TotalCleared),
		"Zero Lines":    p.Sprintf("%d", s.Summary.ZeroLines),
		"Mean Height":   p.Sprintf("%.3f", s.Summary.MeanHeight),
		"Mean 95% CI":   p.Sprintf("[%.3f,%.3f]", s.Summary.MeanCI.Lo, s.Summary.MeanCI.Hi),
		"STD":           p.Sprintf("%.3f", s.Summary.Std),
		"CV":            p.Sprintf("%.3f", s.Summary.Cv),
		"Min Height":    p.Sprintf("%d", s.Summary.MinHeight),
		"Max Height":    p.Sprintf("%d", s.Summary.MaxHeight),
		"P50":           p.Sprintf("%d", s.Summary.P50),
		"P90":           p.Sprintf("%d", s.Summary.P90),
		"P99":           p.Sprintf("%d", s.Summary.P99),
	}
	keys := []string{"Game Name", "Game ID", "Total Lines", "Total Drops", "Total Cleared", "Zero Lines", "Mean Height", "Mean 95% CI", "STD", "CV", "Min Height", "Max Height", "P50", "P90", "P99"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
