package backends

import (
	"io"
	"os"
	"strings"
	"sync"
)

// Console writes whole lines to an output and an error stream
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewConsole returns a console over the given writers. Nil writers default
// to os.Stdout and os.Stderr.
func NewConsole(out, errOut io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Console{out: out, err: errOut}
}

// WriteLine writes text followed by exactly one newline to the error stream
// when isError is set, otherwise to the output stream.
func (c *Console) WriteLine(text string, isError bool) error {
	line := strings.TrimRight(text, "\r\n") + "\n"

	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.out
	if isError {
		w = c.err
	}
	_, err := io.WriteString(w, line)
	return err
}
