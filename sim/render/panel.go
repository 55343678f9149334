package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/nara-t/nara-sim/sim"
)

type panelLine struct {
	text string
	err  bool
}

// LogPanel is the terminal-style log of a run. It implements sim.RecordSink:
// every observed record becomes one pseudo-CSV line, optionally echoed to a
// stream as it arrives.
type LogPanel struct {
	mu     sync.Mutex
	lines  []panelLine
	stream io.Writer
}

// NewLogPanel returns an empty panel. stream may be nil.
func NewLogPanel(stream io.Writer) *LogPanel {
	return &LogPanel{stream: stream}
}

// Observe appends the log line for rec.
func (p *LogPanel) Observe(rec *sim.RequestRecord) {
	line := panelLine{text: sim.FormatLogLine(rec), err: !rec.OK()}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
	if p.stream != nil {
		text := line.text
		if line.err {
			text = errorStyle.Render(text)
		}
		_, _ = fmt.Fprintln(p.stream, text)
	}
}

// Lines returns a copy of the lines so far, unstyled.
func (p *LogPanel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	for i, l := range p.lines {
		out[i] = l.text
	}
	return out
}

// Reset clears the panel for a new run.
func (p *LogPanel) Reset() {
	p.mu.Lock()
	p.lines = nil
	p.mu.Unlock()
}

// Render draws the panel. Error lines are red.
func (p *LogPanel) Render(s Session) string {
	p.mu.Lock()
	body := make([]string, 0, len(p.lines))
	for _, l := range p.lines {
		if l.err {
			body = append(body, errorStyle.Render(l.text))
		} else {
			body = append(body, l.text)
		}
	}
	p.mu.Unlock()
	return frame(s, panelStyle, s.Label(LabelLogTitle), body)
}
