// Package ui shows traversal progress in the terminal: a plain log of
// visited nodes, or an interactive bubbletea view.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/service"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// ConsoleLog appends one line per snapshot it is notified of
type ConsoleLog struct {
	mu    sync.Mutex
	w     io.Writer
	lines uint64

	pct    *color.Color
	node   *color.Color
	subtle *color.Color
	good   *color.Color
	warn   *color.Color
}

// NewConsoleLog writes to w. Colors are dropped when plain is set.
func NewConsoleLog(w io.Writer, plain bool) *ConsoleLog {
	c := &ConsoleLog{
		w:      w,
		pct:    color.New(color.FgCyan),
		node:   color.New(color.FgHiYellow, color.Bold),
		subtle: color.New(color.FgHiBlack),
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
	}
	if plain {
		for _, col := range []*color.Color{c.pct, c.node, c.subtle, c.good, c.warn} {
			col.DisableColor()
		}
	}
	return c
}

// FormatLine renders a snapshot without colors
func FormatLine(s *domain.SimulationState) string {
	current, _ := s.Current()
	return fmt.Sprintf("[%5.1f%%] %s/%s visited, current %s",
		s.Progress(),
		humanize.Comma(int64(s.VisitedCount())),
		humanize.Comma(int64(s.Total())),
		current)
}

// Handle writes the line for one snapshot
func (c *ConsoleLog) Handle(s *domain.SimulationState) {
	current, ok := s.Current()
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines++
	fmt.Fprintf(c.w, "[%s] %s visited, current %s\n",
		c.pct.Sprintf("%5.1f%%", s.Progress()),
		c.subtle.Sprintf("%s/%s", humanize.Comma(int64(s.VisitedCount())), humanize.Comma(int64(s.Total()))),
		c.node.Sprint(current))
}

// Attach subscribes to the state channel
func (c *ConsoleLog) Attach(ch *service.StateChannel) *service.Subscription {
	return ch.Subscribe("console", c.Handle)
}

// Lines returns how many snapshot lines were written
func (c *ConsoleLog) Lines() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines
}

// Finished writes the summary of a run
func (c *ConsoleLog) Finished(res service.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.good.Sprint("completed")
	if res.Status() == domain.RunStatusCancelled {
		status = c.warn.Sprint("cancelled")
	}
	fmt.Fprintf(c.w, "%s: %s of %s nodes in %s\n",
		status,
		humanize.Comma(int64(res.Emitted)),
		humanize.Comma(int64(res.Total)),
		res.Duration.Round(time.Millisecond))
}
