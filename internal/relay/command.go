package relay

import "strings"

// CommandPrefix marks a line of operator input as a command.
const CommandPrefix = ":"

// Command is an operator command recognised in StateInteractive.
type Command int

const (
	CommandNone    Command = iota // Not a command; forward the line
	CommandUpgrade                // :upgrade
	CommandSocat                  // :socat
	CommandQuit                   // :quit
	CommandUnknown                // Prefixed but unrecognised
)

// String returns the command as typed, or a label for the non-commands.
func (c Command) String() string {
	switch c {
	case CommandUpgrade:
		return ":upgrade"
	case CommandSocat:
		return ":socat"
	case CommandQuit:
		return ":quit"
	case CommandUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// ParseCommand classifies one line of input with its newline removed.
// Matching is exact and case-sensitive.
func ParseCommand(line string) Command {
	if !strings.HasPrefix(line, CommandPrefix) {
		return CommandNone
	}
	switch line {
	case ":upgrade":
		return CommandUpgrade
	case ":socat":
		return CommandSocat
	case ":quit":
		return CommandQuit
	default:
		return CommandUnknown
	}
}
