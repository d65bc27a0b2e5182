package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/xkilldash9x/prunact/internal/act"
)

// ConsoleConfirmer asks on a terminal before a step continues. An empty line
// (Enter) confirms; "q", "n" or end of input declines.
type ConsoleConfirmer struct {
	out    io.Writer
	prompt *color.Color
	hint   *color.Color

	start sync.Once
	in    io.Reader
	lines chan string
}

var _ act.Confirmer = (*ConsoleConfirmer)(nil)

// NewConsoleConfirmer reads answers from in and writes prompts to out.
func NewConsoleConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{
		in:     in,
		out:    out,
		prompt: color.New(color.FgYellow, color.Bold),
		hint:   color.New(color.FgCyan),
		lines:  make(chan string),
	}
}

func (c *ConsoleConfirmer) readLines() {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	close(c.lines)
}

// Confirm blocks until the user answers or ctx ends.
func (c *ConsoleConfirmer) Confirm(ctx context.Context, prompt string) error {
	c.start.Do(func() { go c.readLines() })

	fmt.Fprintln(c.out)
	c.prompt.Fprintf(c.out, "ACT: %s", prompt)
	c.hint.Fprintln(c.out, "  [Enter] continue  [q] stop")

	select {
	case line, ok := <-c.lines:
		if !ok {
			return act.ErrDeclined
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q", "n", "no", "quit", "stop":
			return act.ErrDeclined
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AutoConfirm confirms every prompt immediately.
type AutoConfirm struct{}

var _ act.Confirmer = AutoConfirm{}

func (AutoConfirm) Confirm(context.Context, string) error { return nil }
