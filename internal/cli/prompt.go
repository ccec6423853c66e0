package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// errCanceled is returned when the operator aborts a prompt.
var errCanceled = errors.New("canceled")

// errNoTTY is returned by the interactive prompts when stdin is not a
// terminal.
var errNoTTY = errors.New("stdin is not a terminal, cannot prompt")

// InterfaceAddr is a selectable listen address.
type InterfaceAddr struct {
	Name string
	IP   string
}

// Label returns the text shown in the picker.
func (a InterfaceAddr) Label() string {
	return fmt.Sprintf("%s (%s)", a.IP, a.Name)
}

// Prompter asks the operator for listener settings.
type Prompter interface {
	SelectInterface(addrs []InterfaceAddr) (string, error)
	Port(defaultPort int) (int, error)
	Confirm(title string) (bool, error)
}

// prompter is replaced in tests.
var prompter Prompter = huhPrompter{}

type huhPrompter struct{}

func (huhPrompter) SelectInterface(addrs []InterfaceAddr) (string, error) {
	if !stdinIsTerminal() {
		return "", errNoTTY
	}
	if len(addrs) == 0 {
		return "", errors.New("no non-loopback IPv4 interface found (use --host)")
	}
	opts := make([]huh.Option[string], 0, len(addrs))
	for _, a := range addrs {
		opts = append(opts, huh.NewOption(a.Label(), a.IP))
	}

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Listening Interface").
				Options(opts...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeBase16()).Run()
	if err != nil {
		return "", promptError(err)
	}
	return choice, nil
}

func (huhPrompter) Port(defaultPort int) (int, error) {
	if !stdinIsTerminal() {
		return 0, errNoTTY
	}
	value := strconv.Itoa(defaultPort)
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listening port").
				Description(fmt.Sprintf("default: %d", defaultPort)).
				Value(&value).
				Validate(func(s string) error {
					_, err := parsePort(s, defaultPort)
					return err
				}),
		),
	).WithTheme(huh.ThemeBase16()).Run()
	if err != nil {
		return 0, promptError(err)
	}
	return parsePort(value, defaultPort)
}

func (huhPrompter) Confirm(title string) (bool, error) {
	if !stdinIsTerminal() {
		return false, errNoTTY
	}
	ok := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase16()).Run()
	if err != nil {
		return false, promptError(err)
	}
	return ok, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func promptError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errCanceled
	}
	return err
}

// parsePort parses a port typed by the operator. Blank input selects
// defaultPort.
func parsePort(s string, defaultPort int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid input: %q is not a valid number", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port number %d is out of range (1-65535)", port)
	}
	return port, nil
}

// listInterfaces returns the IPv4 addresses of every up, non-loopback
// interface.
func listInterfaces() ([]InterfaceAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	var out []InterfaceAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, ipv4Addrs(iface.Name, addrs)...)
	}
	return out, nil
}

func ipv4Addrs(name string, addrs []net.Addr) []InterfaceAddr {
	var out []InterfaceAddr
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			out = append(out, InterfaceAddr{Name: name, IP: ip4.String()})
		}
	}
	return out
}
