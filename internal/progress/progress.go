// Package progress draws batch progress and spinners on stderr so stdout
// stays clean for pipes and JSON.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Bar counts processed files, remembering how many failed.
type Bar struct {
	Total   int
	Current int
	Failed  int
	Label   string
	Width   int
	Enabled bool
	Out     io.Writer

	mu sync.Mutex
}

// New creates a progress bar on stderr. It is disabled when stderr is not
// a terminal, with SHEETKIT_NO_PROGRESS=1 or SHEETKIT_JSON=true.
func New(label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
	}
}

// Done marks one item as processed.
func (b *Bar) Done(name string) { b.advance(name, false) }

// Fail marks one item as failed.
func (b *Bar) Fail(name string) { b.advance(name, true) }

func (b *Bar) advance(name string, failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Current++
	if b.Current > b.Total {
		b.Current = b.Total
	}
	if failed {
		b.Failed++
	}
	b.render(name)
}

// Finish clears the bar and prints a summary line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	mark := color.GreenString("✓")
	if b.Failed > 0 {
		mark = color.YellowString("!")
	}
	fmt.Fprintf(b.Out, "\r\033[K%s %s\n", mark, b.summary())
}

// Summary describes the counts, e.g. "8 de 10 arquivos processados, 2 com erro".
func (b *Bar) Summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary()
}

func (b *Bar) summary() string {
	s := fmt.Sprintf("%d de %d arquivos processados", b.Current-b.Failed, b.Total)
	if b.Failed > 0 {
		s += fmt.Sprintf(", %d com erro", b.Failed)
	}
	return s
}

func (b *Bar) render(name string) {
	if !b.Enabled {
		return
	}
	filled := int(b.pct() / 100 * float64(b.Width))
	if filled > b.Width {
		filled = b.Width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.Width-filled)
	fmt.Fprintf(b.Out, "\r\033[K%s %s %d/%d  %s", b.Label, bar, b.Current, b.Total, name)
}

// Pct returns the completed share in percent.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pct()
}

func (b *Bar) pct() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Total) * 100
}

// Spinner shows activity while a large spreadsheet loads or saves.
type Spinner struct {
	Label   string
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner on stderr.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
		done:    make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	s.stopped = false
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		frames := []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(s.Out, "\r\033[K%c %s", frames[i%len(frames)], s.Label)
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and prints result, if any.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.Enabled {
		fmt.Fprint(s.Out, "\r\033[K")
		if result != "" {
			fmt.Fprintf(s.Out, "%s %s\n", color.GreenString("✓"), result)
		}
	}
}

// Update changes the label while running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

func shouldEnable() bool {
	if os.Getenv("SHEETKIT_NO_PROGRESS") == "1" {
		return false
	}
	if os.Getenv("SHEETKIT_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
