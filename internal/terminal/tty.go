package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoTTY is returned when no controlling terminal can be found.
var ErrNoTTY = errors.New("no controlling tty found")

// TTYName returns the device path of the terminal behind f, for programs that
// need to open it by name.
func TTYName(f *os.File) (string, error) {
	if path, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", f.Fd())); err == nil &&
		strings.HasPrefix(path, "/dev/") {
		return path, nil
	}

	cmd := exec.Command("tty")
	cmd.Stdin = f
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTTY, err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" || name == "not a tty" {
		return "", ErrNoTTY
	}
	return name, nil
}
