// Package progress renders the single-line incremental status bar the
// conversion pipeline uses for its long-running layer checkout step,
// adapted from the teacher's HTTP
// download progress bar onto a step counter instead of a byte counter.
package progress

import (
	"context"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/kirbyfan64/flatpod/pkg/sylog"
)

// StepBar renders "<label> N / total" on one line, advancing by one
// step at a time.
type StepBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// visible reports whether a bar should actually render: stderr must be
// a terminal and the log level must not have silenced output.
func visible() bool {
	return term.IsTerminal(2) && sylog.GetLevel() >= 0
}

// NewStepBar starts a step-counted bar labeled label, with total steps
// known up front (e.g. the number of layers to check out). If total is
// 0, the bar renders a plain counter with no percentage.
func NewStepBar(ctx context.Context, label string, total int) *StepBar {
	if !visible() {
		return &StepBar{}
	}

	p := mpb.NewWithContext(ctx)
	opts := []mpb.BarOption{
		mpb.PrependDecorators(decor.Name(label + " ")),
	}
	if total > 0 {
		opts = append(opts,
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d"), decor.Percentage()),
		)
	} else {
		opts = append(opts, mpb.AppendDecorators(decor.CurrentNoUnit("%d")))
	}

	return &StepBar{p: p, bar: p.AddBar(int64(total), opts...)}
}

// Increment advances the bar by one step.
func (s *StepBar) Increment() {
	if s.bar == nil {
		return
	}
	s.bar.Increment()
}

// Done marks the bar complete and waits for it to render its final
// state before returning.
func (s *StepBar) Done() {
	if s.bar == nil {
		return
	}
	if !s.bar.Completed() {
		s.bar.SetCurrent(s.bar.Current())
		s.bar.Abort(false)
	}
	s.p.Wait()
}
