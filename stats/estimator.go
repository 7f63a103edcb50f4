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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 疊高體驗評估
type EstimatorHeights struct {
	HeightStat HeightStat
	BucketStat BucketStat
	Lines      int
}

// 疊高敘事
type HeightStat struct {
	ExpMedian  PointStat  // 描述每局結束疊高的中位數
	ExpPerc    ExpPerc    // 描述疊高的分位數分布
	HeightPerc HeightPerc // 描述疊高門檻(對應多少比例的局)
}

// 用分位數視角看: 最高10%局的疊高 最高1%局的疊高 ...
type ExpPerc struct {
	ExpP10 PointStat
	ExpP50 PointStat
	ExpP90 PointStat
	ExpP99 PointStat
}

// 用疊高門檻視角看: 有多少局收在完全清空 有多少局收在4列以下 ...
type HeightPerc struct {
	H0  PointStat // 完全清空
	H4  PointStat // 疊高 <= 4
	H10 PointStat // 疊高 <= 10
	H20 PointStat // 疊高 <= 20
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 對應分桶的統計
type BucketStat struct {
	BucketLable []string    // 分桶標籤
	BucketRate  []PointStat // 各桶落點比例的點估計
}

// ============================================================
// ** 對外 : 疊高體驗評估 **
// ============================================================

// EstimatorLineExp 疊高體驗評估
//
// 1. Height 敘事 : 描述每局結束疊高大致的分位分布
//
// 2. Threshold 敘事 : 描述落在各疊高門檻以下的局數比例
//
// 3. Bucket 敘事 : 描述各疊高分桶的落點比例與 CP 95% CI
func EstimatorLineExp(heights []int) *EstimatorHeights {
	// 0. 防禦：空輸入
	n := len(heights)
	out := &EstimatorHeights{Lines: n}
	if n == 0 {
		return out
	}

	// ------------------------------------------------------------
	// 1) Height 敘事：收集每局結束疊高並做分位/CI
	// ------------------------------------------------------------
	hs := make([]float64, n)
	for i, h := range heights {
		hs[i] = float64(h)
	}

	// 中位數 (點估計 + 95% CI)
	medHat := quantilePoint(hs, 0.5)
	medLo, medHi := quantileCI(hs, 0.5, 0.95)

	// P10, P50, P90, P99 (點估計 + 95% CI)
	p10Hat := quantilePoint(hs, 0.10)
	p10Lo, p10Hi := quantileCI(hs, 0.10, 0.95)

	p50Hat := quantilePoint(hs, 0.50)
	p50Lo, p50Hi := quantileCI(hs, 0.50, 0.95)

	p90Hat := quantilePoint(hs, 0.90)
	p90Lo, p90Hi := quantileCI(hs, 0.90, 0.95)

	p99Hat := quantilePoint(hs, 0.99)
	p99Lo, p99Hi := quantileCI(hs, 0.99, 0.95)

	// 疊高對標：<= 0/4/10/20 列的局數比例（CP 95% CI）
	h0Hat, h0CI := percentileCIForValue(hs, 0, 0.95)
	h4Hat, h4CI := percentileCIForValue(hs, 4, 0.95)
	h10Hat, h10CI := percentileCIForValue(hs, 10, 0.95)
	h20Hat, h20CI := percentileCIForValue(hs, 20, 0.95)

	out.HeightStat = HeightStat{
		ExpMedian: PointStat{Hat: medHat, CI: CI{Lo: medLo, Hi: medHi}},
		ExpPerc: ExpPerc{
			ExpP10: PointStat{Hat: p10Hat, CI: CI{Lo: p10Lo, Hi: p10Hi}},
			ExpP50: PointStat{Hat: p50Hat, CI: CI{Lo: p50Lo, Hi: p50Hi}},
			ExpP90: PointStat{Hat: p90Hat, CI: CI{Lo: p90Lo, Hi: p90Hi}},
			ExpP99: PointStat{Hat: p99Hat, CI: CI{Lo: p99Lo, Hi: p99Hi}},
		},
		HeightPerc: HeightPerc{
			H0:  PointStat{Hat: h0Hat, CI: h0CI},
			H4:  PointStat{Hat: h4Hat, CI: h4CI},
			H10: PointStat{Hat: h10Hat, CI: h10CI},
			H20: PointStat{Hat: h20Hat, CI: h20CI},
		},
	}

	// ------------------------------------------------------------
	// 2) Bucket 敘事：各疊高分桶落點比例 + CP 95% CI
	// ------------------------------------------------------------
	labels := Buckets.HeightBucketStr()
	L := len(labels)
	counts := make([]int, L)
	for _, h := range heights {
		counts[Buckets.Index(h)]++
	}

	out.BucketStat = BucketStat{BucketLable: labels, BucketRate: make([]PointStat, L)}
	for bi := 0; bi < L; bi++ {
		hat, ci := proportionCICP(counts[bi], n, 0.95)
		out.BucketStat.BucketRate[bi] = PointStat{Hat: hat, CI: ci}
	}

	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 問題：給定樣本 data 與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
// 回傳 (pHat, CI)
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	// k = 數到 <= x0 的個數
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorHeights) Out() {
	// 1) Height (Line Experience)
	fmt.Println("=== Height (Line Experience) ===")
	heightKeys := []string{
		"Median Height",
		"P10 Height",
		"P50 Height",
		"P90 Height",
		"P99 Height",
		"Empty board (lines)",
		"≤4 rows (lines)",
		"≤10 rows (lines)",
		"≤20 rows (lines)",
	}
	heightMsg := map[string]string{
		"Median Height":       fmtHatCIRows(est.HeightStat.ExpMedian.Hat, est.HeightStat.ExpMedian.CI),
		"P10 Height":          fmtHatCIRows(est.HeightStat.ExpPerc.ExpP10.Hat, est.HeightStat.ExpPerc.ExpP10.CI),
		"P50 Height":          fmtHatCIRows(est.HeightStat.ExpPerc.ExpP50.Hat, est.HeightStat.ExpPerc.ExpP50.CI),
		"P90 Height":          fmtHatCIRows(est.HeightStat.ExpPerc.ExpP90.Hat, est.HeightStat.ExpPerc.ExpP90.CI),
		"P99 Height":          fmtHatCIRows(est.HeightStat.ExpPerc.ExpP99.Hat, est.HeightStat.ExpPerc.ExpP99.CI),
		"Empty board (lines)": fmtHatCIpct01(est.HeightStat.HeightPerc.H0.Hat, est.HeightStat.HeightPerc.H0.CI),
		"≤4 rows (lines)":     fmtHatCIpct01(est.HeightStat.HeightPerc.H4.Hat, est.HeightStat.HeightPerc.H4.CI),
		"≤10 rows (lines)":    fmtHatCIpct01(est.HeightStat.HeightPerc.H10.Hat, est.HeightStat.HeightPerc.H10.CI),
		"≤20 rows (lines)":    fmtHatCIpct01(est.HeightStat.HeightPerc.H20.Hat, est.HeightStat.HeightPerc.H20.CI),
	}
	printTable("Height (Line Experience)", heightKeys, heightMsg)

	// 2) Buckets (lines ending in bucket)
	fmt.Println("\n=== Buckets (lines ending in bucket) ===")
	for i, label := range est.BucketStat.BucketLable {
		ps := est.BucketStat.BucketRate[i]
		fmt.Printf("%-20s : %s\n", label, fmtHatCIpct01(ps.Hat, ps.CI))
	}
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtHatCIRows(hat float64, ci CI) string {
	return fmt.Sprintf("%.1f rows [%.1f, %.1f]", hat, ci.Lo, ci.Hi)
}
