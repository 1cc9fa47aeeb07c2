// Package progress reports how far a batch replay has got.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a batch of requests resolves.
// Implementations are safe for concurrent use.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter returns a CIReporter if the CI environment variable is set,
// or a TerminalReporter otherwise. Both write to stderr so stdout stays free
// for results.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Out: os.Stderr}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	Out io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription("Resolving"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out   io.Writer
	mu    sync.Mutex
	total int
}

func (r *CIReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	fmt.Fprintf(r.Out, "Replaying %d requests\n", total)
}

func (r *CIReporter) Update(current int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, "Replay complete")
}
