package utils

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// BarProgress renders upload progress with a pterm progress bar.
type BarProgress struct {
	title string
	bar   *pterm.ProgressbarPrinter
}

// NewBarProgress returns a progress bar titled with the uploaded file name, or
// nil when progress cannot be shown (quiet mode or stderr is not a terminal).
func NewBarProgress(title string) *BarProgress {
	if IsQuiet() || !IsTerminal(os.Stderr) {
		return nil
	}
	return &BarProgress{title: title}
}

func (p *BarProgress) Start(total int64) {
	bar := pterm.DefaultProgressbar.
		WithTitle(fmt.Sprintf("%s (%d bytes)", p.title, total)).
		WithTotal(int(total)).
		WithWriter(os.Stderr).
		WithRemoveWhenDone(false)

	pb, err := bar.Start()
	if err != nil {
		return
	}
	p.bar = pb
}

func (p *BarProgress) Add(n int) {
	if p.bar != nil {
		p.bar.Add(n)
	}
}

func (p *BarProgress) Finish() {
	if p.bar == nil {
		return
	}
	if remaining := p.bar.Total - p.bar.Current; remaining > 0 {
		p.bar.Add(remaining)
	}
	_, _ = p.bar.Stop()
	p.bar = nil
}
