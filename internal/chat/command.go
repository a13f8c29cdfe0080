package chat

import "fmt"

// Command is the mode a request runs in.
type Command string

// Modes.
const (
	Offline    Command = "offline"
	Search     Command = "search"
	DeepSearch Command = "deepsearch"
)

// ParseCommand validates s. The empty string means [Offline].
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case "":
		return Offline, nil
	case Offline, Search, DeepSearch:
		return c, nil
	default:
		return Offline, fmt.Errorf("unknown command %q (valid: offline, search, deepsearch)", s)
	}
}

// Searches reports whether the mode consults the web before answering.
func (c Command) Searches() bool {
	return c == Search || c == DeepSearch
}
