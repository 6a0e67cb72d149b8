package render

import (
	"context"
	"errors"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/runner"
)

// Command renders documents by piping them through an external program.
// The program reads the document on stdin and writes the page to stdout.
type Command struct {
	argv   []string
	runner *runner.Runner
}

// NewCommand creates a renderer that runs argv for every document.
func NewCommand(argv []string, r *runner.Runner) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("render command is empty")
	}
	if r == nil {
		r = runner.New()
	}
	if _, err := r.Find(argv[0]); err != nil {
		return nil, err
	}
	return &Command{argv: append([]string(nil), argv...), runner: r}, nil
}

// Render runs the configured program with source on stdin.
func (c *Command) Render(ctx context.Context, source []byte) ([]byte, error) {
	return c.runner.Output(ctx, c.argv, source)
}
