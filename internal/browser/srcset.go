package browser

import (
	"strconv"
	"strings"
)

// PickLargestSrcset returns the highest-resolution candidate of a srcset
// attribute. Candidates with width (w) or density (x) descriptors are compared
// by that value; without descriptors the last candidate wins, matching how
// listings order thumbnails from small to large.
func PickLargestSrcset(srcset string) string {
	best, bestScore := "", -1.0
	for i, cand := range strings.Split(srcset, ",") {
		fields := strings.Fields(cand)
		if len(fields) == 0 {
			continue
		}
		score := float64(i) / 1e6
		if len(fields) > 1 {
			d := fields[len(fields)-1]
			if v, err := strconv.ParseFloat(d[:len(d)-1], 64); err == nil && (strings.HasSuffix(d, "w") || strings.HasSuffix(d, "x")) {
				score = v + score
			}
		}
		if score >= bestScore {
			best, bestScore = fields[0], score
		}
	}
	return best
}
