// Package console renders batch events on a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"clipq/internal/clipq"
)

// Observer writes one styled line per batch event. Colors are only emitted
// when w is a terminal.
type Observer struct {
	mu        sync.Mutex
	w         io.Writer
	verbose   bool
	published map[string]int

	muted lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	title lipgloss.Style
}

var _ clipq.Observer = (*Observer)(nil)

// NewObserver creates an observer writing to w. When verbose is false,
// per-artifact progress ticks are suppressed.
func NewObserver(w io.Writer, verbose bool) *Observer {
	r := lipgloss.NewRenderer(w)
	return &Observer{
		w:         w,
		verbose:   verbose,
		published: make(map[string]int),
		muted:     r.NewStyle().Foreground(lipgloss.Color("245")),
		ok:        r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:      r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	}
}

func (o *Observer) println(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, s)
}

func (o *Observer) OnProgress(processed, total int) {
	if !o.verbose {
		return
	}
	o.println(o.muted.Render(fmt.Sprintf("[%d/%d]", processed, total)))
}

func (o *Observer) OnStatus(msg string) {
	o.println(msg)
}

func (o *Observer) OnArtifactDeleted(path string) {
	o.println(o.muted.Render("removed " + path))
}

func (o *Observer) OnAccountProgress(accountID string) {
	o.mu.Lock()
	o.published[accountID]++
	n := o.published[accountID]
	o.mu.Unlock()

	o.println(o.title.Render(accountID) + " " + o.ok.Render(fmt.Sprintf("+1 (%d this run)", n)))
}

func (o *Observer) OnError(err error) {
	o.println(o.fail.Render("error: ") + err.Error())
}

func (o *Observer) OnFinished(ok bool, summary string) {
	if ok {
		o.println(o.ok.Render("done: ") + summary)
		return
	}
	o.println(o.fail.Render("finished with errors: ") + summary)
}

// Published returns how many publishes this observer saw per account.
func (o *Observer) Published() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]int, len(o.published))
	for k, v := range o.published {
		out[k] = v
	}
	return out
}
