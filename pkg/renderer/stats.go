package renderer

import "time"

// RenderStats describes one completed render
type RenderStats struct {
	Width        int           // Image width
	Height       int           // Requested image height
	Bands        int           // Number of bands rendered
	RowsRendered int           // Rows actually rendered
	Duration     time.Duration // Time from start to the last band
}

// SkippedRows returns the rows that were requested but not rendered
func (s RenderStats) SkippedRows() int {
	return s.Height - s.RowsRendered
}

// PixelsPerSecond returns the render throughput
func (s RenderStats) PixelsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Width*s.RowsRendered) / s.Duration.Seconds()
}
