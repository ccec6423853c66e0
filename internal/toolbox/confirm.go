package toolbox

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm answers yes without asking.
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// LineConfirmer asks on Out and reads one line from In. An empty answer,
// "y" or "yes" (any case) is a yes.
type LineConfirmer struct {
	In  *bufio.Reader
	Out io.Writer
}

// Confirm implements Confirmer.
func (c LineConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.Out, "%s [Y/n]: ", prompt)
	line, err := c.In.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch resp := strings.TrimSpace(line); {
	case resp == "", strings.EqualFold(resp, "y"), strings.EqualFold(resp, "yes"):
		return true, nil
	default:
		return false, nil
	}
}
