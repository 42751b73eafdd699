package service

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ClipWindow 源视频中的一个片段区间（秒）
type ClipWindow struct {
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Length 片段长度
func (w ClipWindow) Length() float64 {
	return w.End - w.Start
}

// ClipSampler 随机选取片段区间：
// start ~ U[0, max(1, duration-margin)]，length ~ U[minLen, maxLen]，end = min(duration, start+length)。
// start 上界另外截断到 duration，保证 0 <= start <= end <= duration
type ClipSampler struct {
	margin float64
	minLen float64
	maxLen float64

	mutex sync.Mutex
	rng   *rand.Rand
}

// NewClipSampler 创建采样器，rng 为空时以当前时间为种子
func NewClipSampler(cfg ClipConfig, rng *rand.Rand) *ClipSampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ClipSampler{
		margin: cfg.Margin,
		minLen: cfg.MinLength,
		maxLen: cfg.MaxLength,
		rng:    rng,
	}
}

// Sample 生成 count 个相互独立的片段区间，允许重叠
func (s *ClipSampler) Sample(duration float64, count int) ([]ClipWindow, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("视频时长无效: %v", duration)
	}

	upper := math.Min(math.Max(1, duration-s.margin), duration)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	windows := make([]ClipWindow, 0, count)
	for i := 0; i < count; i++ {
		start := s.uniform(0, upper)
		length := s.uniform(s.minLen, s.maxLen)
		windows = append(windows, ClipWindow{
			Start: start,
			End:   math.Min(duration, start+length),
		})
	}
	return windows, nil
}

func (s *ClipSampler) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
