package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// HUDLines formats the overlay text for a frame
func HUDLines(s FrameStats, total int) []string {
	current := s.Current
	if current == "" {
		current = "-"
	}
	return []string{
		fmt.Sprintf("progress %5.1f%%  visited %s/%s", s.Progress,
			humanize.Comma(int64(s.Visited)), humanize.Comma(int64(total))),
		"current " + current,
		fmt.Sprintf("frame %s  pulse %s", s.Duration.Round(time.Microsecond), s.PulseSource),
	}
}
