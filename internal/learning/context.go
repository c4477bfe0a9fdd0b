package learning

import (
	"context"
	"sync"
)

// DefaultHistory bounds how many interactions a Context keeps.
const DefaultHistory = 100

// MaxPatterns bounds the successful commands a Context keeps per intent.
const MaxPatterns = 20

// Context is the conversation memory of one running service or shell: the
// last command, a bounded history and the commands that worked per intent.
// Create one per process or session and pass it where it is needed.
type Context struct {
	mu       sync.RWMutex
	max      int
	history  []Interaction
	patterns map[string][]string
}

// NewContext returns an empty Context keeping at most max interactions.
func NewContext(max int) *Context {
	if max <= 0 {
		max = DefaultHistory
	}
	return &Context{max: max, patterns: make(map[string][]string)}
}

// Record appends in to the history, evicting the oldest entry when full.
func (c *Context) Record(_ context.Context, in Interaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, in)
	if len(c.history) > c.max {
		c.history = c.history[len(c.history)-c.max:]
	}
	if in.Success && in.Intent != "" {
		cmds := c.patterns[in.Intent]
		for i, cmd := range cmds {
			if cmd == in.Command {
				cmds = append(cmds[:i:i], cmds[i+1:]...)
				break
			}
		}
		cmds = append(cmds, in.Command)
		if len(cmds) > MaxPatterns {
			cmds = cmds[len(cmds)-MaxPatterns:]
		}
		c.patterns[in.Intent] = cmds
	}
	return nil
}

// Last returns the most recent interaction.
func (c *Context) Last() (Interaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.history) == 0 {
		return Interaction{}, false
	}
	return c.history[len(c.history)-1], true
}

// History returns a copy of the recorded interactions, oldest first.
func (c *Context) History() []Interaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Interaction(nil), c.history...)
}

// Successful returns the commands that succeeded for intent.
func (c *Context) Successful(intent string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.patterns[intent]...)
}

// Patterns returns a copy of the successful commands keyed by intent.
func (c *Context) Patterns() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string, len(c.patterns))
	for k, v := range c.patterns {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Reset forgets everything.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.patterns = make(map[string][]string)
}

// Multi fans an interaction out to several recorders, stopping at the first
// error.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, in Interaction) error {
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
