package booking

// DefaultAvgServiceMinutes is assumed when the selected barber has no
// recorded average service time.
const DefaultAvgServiceMinutes = 15

// EstimatedWaitMinutes derives the wait estimate shown to the client:
// everyone ahead of them, at the barber's average service time per head.
// Position 1 (or the position-unknown sentinel 0) waits zero minutes.
func EstimatedWaitMinutes(position, avgServiceMinutes int) int {
	if avgServiceMinutes <= 0 {
		avgServiceMinutes = DefaultAvgServiceMinutes
	}
	if position <= 1 {
		return 0
	}
	return (position - 1) * avgServiceMinutes
}

// ProgressRatio derives the fill ratio for the position bar:
// (total - position + 1) / total, clamped to [0, 1]. It grows as the client
// moves toward the front. Unknown position (sentinel 0) renders an empty bar.
func ProgressRatio(position, total int) float64 {
	if total <= 0 || position <= 0 {
		return 0
	}
	if position > total {
		position = total
	}
	return float64(total-position+1) / float64(total)
}
