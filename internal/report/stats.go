package report

import (
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
	"github.com/mindharmony/mindharmony/internal/store"
)

// AdminNotice is shown with aggregate statistics.
const AdminNotice = "管理员提示：此处显示的数据仅为本地存储的汇总分数，已去标识化处理，不包含任何作答记录或个人身份信息。"

// ScaleStats aggregates stored results of one instrument.
type ScaleStats struct {
	ScaleID  instrument.ScaleID
	Count    int
	Average  float64
	HighRisk int
	// Bands counts results per band level, indexed by band rank.
	Bands []int
}

// Stats is the admin dashboard summary.
type Stats struct {
	Total    int
	HighRisk int
	Scales   []ScaleStats
}

// Scale returns the stats for id; the zero value when absent.
func (s Stats) Scale(id instrument.ScaleID) ScaleStats {
	for _, sc := range s.Scales {
		if sc.ScaleID == id {
			return sc
		}
	}
	return ScaleStats{ScaleID: id}
}

// ComputeStats folds a score histogram into dashboard stats. Severity is
// derived from each score; rows for unknown scales are skipped.
func ComputeStats(hist []store.ScoreCount) Stats {
	byScale := make(map[instrument.ScaleID]*ScaleStats)
	sums := make(map[instrument.ScaleID]int)

	var st Stats
	for _, h := range hist {
		id := instrument.ScaleID(h.ScaleID)
		s, err := instrument.Lookup(id)
		if err != nil || h.Count <= 0 {
			continue
		}
		band, err := scoring.Classify(s, h.Score)
		if err != nil {
			continue
		}

		sc, ok := byScale[id]
		if !ok {
			sc = &ScaleStats{ScaleID: id, Bands: make([]int, len(s.Bands))}
			byScale[id] = sc
		}
		sc.Count += h.Count
		sc.Bands[band.Rank] += h.Count
		sums[id] += h.Score * h.Count
		if scoring.IsHighRisk(s, h.Score) {
			sc.HighRisk += h.Count
			st.HighRisk += h.Count
		}
		st.Total += h.Count
	}

	for _, id := range instrument.AllScaleIDs() {
		sc, ok := byScale[id]
		if !ok {
			continue
		}
		sc.Average = float64(sums[id]) / float64(sc.Count)
		st.Scales = append(st.Scales, *sc)
	}
	return st
}
