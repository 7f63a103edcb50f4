package stats

const maxLutHeight int = 1024

// HeightBuckets
//
// 用來快速定位每局結束疊高 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - height區間: [0,0], [1,1], [2,2], [3,4], [5,9), ..., [500,999], [1000,+inf)
type HeightBuckets struct {
	heightBucket    []int
	heightBucketStr []string
	heightLUT       []int
}

// Buckets
//
// 用來快速定位每局結束疊高 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
var Buckets *HeightBuckets = &HeightBuckets{
	heightBucket: []int{1, 2, 3, 5, 10, 20, 50, 100, 200, 500, 1000},
	heightBucketStr: []string{
		"[0,0]", "[1,1]", "[2,2]", "[3,4]", "[5,9]", "[10,19]",
		"[20,49]", "[50,99]", "[100,199]", "[200,499]", "[500,999]", "[1000,+inf)",
	},
}

func init() {
	b := Buckets
	lut := make([]int, maxLutHeight)
	idx := 0
	last := len(b.heightBucket)
	for h := 0; h < maxLutHeight; h++ {
		for idx < last && h >= b.heightBucket[idx] {
			idx++
		}
		lut[h] = idx
	}
	b.heightLUT = lut
}

func (b *HeightBuckets) HeightBucketStr() []string {
	return b.heightBucketStr
}

// Len 分桶數量（含最末端的開區間）。
func (b *HeightBuckets) Len() int {
	return len(b.heightBucketStr)
}

// Index 回傳疊高 h 所屬的分桶索引。
func (b *HeightBuckets) Index(h int) int {
	if h < 0 {
		h = 0
	}
	if h >= maxLutHeight {
		return len(b.heightBucketStr) - 1
	}
	return b.heightLUT[h]
}
