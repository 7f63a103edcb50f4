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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/stacklab/spec"
	"github.com/zintix-labs/stacklab/stats"
)

// buildHeightReport constructs a HeightReport from a list of per-line heights.
func buildHeightReport(heights []int) *stats.HeightReport {
	L := stats.Buckets.Len()
	collect := make([]int, L)

	var sum int
	var sqSum float64
	maxH, minH := 0, math.MaxInt
	zero := 0
	for _, h := range heights {
		collect[stats.Buckets.Index(h)]++
		sum += h
		sqSum += float64(h * h)
		if h > maxH {
			maxH = h
		}
		if h < minH {
			minH = h
		}
		if h == 0 {
			zero++
		}
	}
	if len(heights) == 0 {
		minH = 0
	}

	report := &stats.HeightReport{
		Summary: &stats.SummaryReport{
			GameName:  "TestGame",
			GameId:    spec.GID(0),
			Lines:     len(heights),
			ZeroLines: zero,
			MaxHeight: maxH,
			MinHeight: minH,
		},
		Moment: &stats.MomentReport{
			HeightSum:   sum,
			HeightSqSum: sqSum,
		},
		Dist: &stats.DistReport{
			HeightBucket:  stats.Buckets.HeightBucketStr(),
			HeightCollect: collect,
		},
	}
	report.Done()
	return report
}

func TestHeightReportCoreMetrics(t *testing.T) {
	heights := []int{2, 4}
	rep := buildHeightReport(heights)

	wantMean := 3.0
	if got := rep.Mean(); math.Abs(got-wantMean) > 1e-12 {
		t.Fatalf("Mean got %.12f want %.12f", got, wantMean)
	}

	variance := ((2.0*2.0 + 4.0*4.0) - 6.0*6.0/2) / (2 - 1)
	wantStd := math.Sqrt(variance)
	if got := rep.StdDev(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("StdDev got %.12f want %.12f", got, wantStd)
	}

	wantCV := wantStd / wantMean
	if got := rep.Cv(); math.Abs(got-wantCV) > 1e-12 {
		t.Fatalf("CV got %.12f want %.12f", got, wantCV)
	}

	ci := rep.Ci()
	if ci.Lo > wantMean || ci.Hi < wantMean {
		t.Fatalf("mean CI [%.3f, %.3f] does not cover mean %.3f", ci.Lo, ci.Hi, wantMean)
	}

	// Distribution lengths and sums
	if len(rep.Dist.HeightCollect) != len(rep.Dist.HeightBucket) {
		t.Fatalf("height buckets length mismatch")
	}
	totalLines := 0
	for _, c := range rep.Dist.HeightCollect {
		totalLines += c
	}
	if totalLines != rep.Summary.Lines {
		t.Fatalf("distribution total %d != lines %d", totalLines, rep.Summary.Lines)
	}

	rep.Done() // idempotent
	if rep.Mean() != wantMean {
		t.Fatalf("Mean changed after second Done")
	}
}

func TestHeightReportEmpty(t *testing.T) {
	rep := buildHeightReport(nil)
	if rep.Mean() != 0 || rep.StdDev() != 0 || rep.Cv() != 0 {
		t.Fatalf("empty report should have zero metrics")
	}
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		h    int
		want string
	}{
		{0, "[0,0]"},
		{1, "[1,1]"},
		{2, "[2,2]"},
		{3, "[3,4]"},
		{4, "[3,4]"},
		{5, "[5,9]"},
		{9, "[5,9]"},
		{10, "[10,19]"},
		{42, "[20,49]"},
		{999, "[500,999]"},
		{1000, "[1000,+inf)"},
		{100000, "[1000,+inf)"},
		{-3, "[0,0]"},
	}
	labels := stats.Buckets.HeightBucketStr()
	for _, c := range cases {
		idx := stats.Buckets.Index(c.h)
		if labels[idx] != c.want {
			t.Fatalf("height %d -> bucket %q, want %q", c.h, labels[idx], c.want)
		}
	}
}

func TestRenderOutputs(t *testing.T) {
	rep := buildHeightReport([]int{0, 1, 2, 4, 4, 7})

	var jb bytes.Buffer
	if err := rep.WriteWith(&jb, &stats.JsonHeightReportRender{}); err != nil {
		t.Fatalf("json render failed: %v", err)
	}
	if !strings.Contains(jb.String(), "\"MeanHeight\"") {
		t.Fatalf("json output missing MeanHeight: %s", jb.String())
	}

	var yb bytes.Buffer
	if err := rep.WriteWith(&yb, &stats.YAMLHeightReportRender{}); err != nil {
		t.Fatalf("yaml render failed: %v", err)
	}
	// 一維陣列應收成 flow style
	if !strings.Contains(yb.String(), "[") {
		t.Fatalf("yaml output missing flow sequences: %s", yb.String())
	}
}

func TestEstimatorLineExp(t *testing.T) {
	heights := make([]int, 0, 1000)
	for i := 0; i < 1000; i++ {
		heights = append(heights, i%10) // 0..9 均勻
	}
	est := stats.EstimatorLineExp(heights)

	if est.Lines != 1000 {
		t.Fatalf("Lines = %d, want 1000", est.Lines)
	}
	med := est.HeightStat.ExpMedian
	if med.Hat < 4 || med.Hat > 6 {
		t.Fatalf("median %.2f outside [4,6]", med.Hat)
	}
	if med.CI.Lo > med.Hat || med.CI.Hi < med.Hat {
		t.Fatalf("median CI [%.2f, %.2f] does not cover %.2f", med.CI.Lo, med.CI.Hi, med.Hat)
	}

	h0 := est.HeightStat.HeightPerc.H0
	if math.Abs(h0.Hat-0.1) > 1e-9 {
		t.Fatalf("empty-board rate %.4f, want 0.1", h0.Hat)
	}
	if h0.CI.Lo > 0.1 || h0.CI.Hi < 0.1 {
		t.Fatalf("empty-board CI [%.4f, %.4f] does not cover 0.1", h0.CI.Lo, h0.CI.Hi)
	}

	if len(est.BucketStat.BucketRate) != stats.Buckets.Len() {
		t.Fatalf("bucket rate length mismatch")
	}
	sum := 0.0
	for _, ps := range est.BucketStat.BucketRate {
		sum += ps.Hat
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("bucket rates sum to %.6f, want 1", sum)
	}
}

func TestEstimatorEmpty(t *testing.T) {
	est := stats.EstimatorLineExp(nil)
	if est.Lines != 0 {
		t.Fatalf("empty estimator Lines = %d", est.Lines)
	}
}
