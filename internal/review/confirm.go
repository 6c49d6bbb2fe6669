package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the reviewer to confirm an action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer with a fixed answer, used for form posts where the
// confirmation was given in the browser.
type Confirmed bool

// Confirm returns the fixed answer.
func (c Confirmed) Confirm(context.Context, string) (bool, error) {
	return bool(c), nil
}

// TerminalConfirmer prompts on out and reads a y/n answer from in.
type TerminalConfirmer struct {
	In        io.Reader
	Out       io.Writer
	AssumeYes bool
}

// Confirm writes prompt and reads one line. Only "y" and "yes" confirm.
func (t *TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(t.Out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
