package config

import (
	"strconv"
	"strings"
)

// Vars are the placeholder values substituted into shell payloads and
// subprocess arguments.
type Vars struct {
	IP       string
	Port     int
	HTTPPort int
	Binary   string
	TTY      string
}

// Expand replaces {ip}, {port}, {http_port}, {binary} and {tty} in s.
// Unknown placeholders are left untouched.
func Expand(s string, v Vars) string {
	r := strings.NewReplacer(
		"{ip}", v.IP,
		"{port}", strconv.Itoa(v.Port),
		"{http_port}", strconv.Itoa(v.HTTPPort),
		"{binary}", v.Binary,
		"{tty}", v.TTY,
	)
	return r.Replace(s)
}

// ExpandArgs applies Expand to every argument of cmd.
func (c Command) ExpandArgs(v Vars) []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = Expand(a, v)
	}
	return out
}
