// Package listen provides the input sources a dialogue session can draw
// recognized text from: interactive console, HTTP push, scripted files and
// a microphone (behind the portaudio build tag).
package listen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Console reads one input per line from an interactive terminal.
type Console struct {
	in    io.Reader
	lines chan string
	once  sync.Once
}

func NewConsole() *Console {
	return NewConsoleFrom(os.Stdin)
}

func NewConsoleFrom(in io.Reader) *Console {
	return &Console{
		in:    in,
		lines: make(chan string, 4),
	}
}

func (c *Console) Name() string {
	return "console"
}

func (c *Console) Start(_ context.Context) error {
	c.once.Do(func() {
		go func() {
			defer close(c.lines)
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- scanner.Text()
			}
		}()
	})
	return nil
}

func (c *Console) Stop() error {
	return nil
}

func (c *Console) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", fmt.Errorf("console input closed")
		}
		return line, nil
	}
}
