package juliusprotocol

import "strings"

// CommandType represents the type of module command.
type CommandType int

const (
	// Status queries
	CmdVersion CommandType = iota
	CmdStatus
	CmdGrammarInfo

	// Engine control
	CmdPause
	CmdResume
	CmdTerminate
	CmdDie
)

// commandWords maps each command type to its wire form.
var commandWords = map[CommandType]string{
	CmdVersion:     "VERSION",
	CmdStatus:      "STATUS",
	CmdGrammarInfo: "GRAMINFO",
	CmdPause:       "PAUSE",
	CmdResume:      "RESUME",
	CmdTerminate:   "TERMINATE",
	CmdDie:         "DIE",
}

// Command is a one-line request sent to the engine. The engine does not echo
// or acknowledge commands; some of them are answered by a record of a known
// kind (see Reply).
type Command struct {
	Type CommandType
}

// NewVersionCommand asks the engine to report its ENGINEINFO.
func NewVersionCommand() Command { return Command{Type: CmdVersion} }

// NewStatusCommand asks the engine to report its SYSINFO.
func NewStatusCommand() Command { return Command{Type: CmdStatus} }

// NewGrammarInfoCommand asks the engine to report its GRAMINFO.
func NewGrammarInfoCommand() Command { return Command{Type: CmdGrammarInfo} }

// NewPauseCommand stops recognition after the current input segment.
func NewPauseCommand() Command { return Command{Type: CmdPause} }

// NewResumeCommand restarts recognition after PAUSE or TERMINATE.
func NewResumeCommand() Command { return Command{Type: CmdResume} }

// NewTerminateCommand stops recognition immediately, discarding the current input.
func NewTerminateCommand() Command { return Command{Type: CmdTerminate} }

// NewDieCommand shuts the engine down.
func NewDieCommand() Command { return Command{Type: CmdDie} }

// Format returns the command word as sent on the wire, without the line break.
func (c Command) Format() string {
	if word, ok := commandWords[c.Type]; ok {
		return word
	}
	return ""
}

// FormatLine returns the command terminated with a line break, ready to be
// written to the socket.
func (c Command) FormatLine() string {
	return c.Format() + "\n"
}

// Reply returns the notification kind the engine answers this command with.
// Commands without a reply return false.
func (c Command) Reply() (Kind, bool) {
	switch c.Type {
	case CmdVersion:
		return KindEngineInfo, true
	case CmdStatus:
		return KindSystemInfo, true
	case CmdGrammarInfo:
		return KindGrammarInfo, true
	default:
		return "", false
	}
}

// CommandParser parses commands from user text.
type CommandParser struct{}

// NewCommandParser creates a new command parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// Parse parses a command line into a Command. Matching is case-insensitive
// and a few friendlier aliases are accepted.
func (p *CommandParser) Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, newInvalidCommandError("")
	}
	if len(fields) > 1 {
		return Command{}, newUnexpectedArgumentError(strings.Join(fields[1:], " "))
	}

	switch strings.ToLower(fields[0]) {
	case "version":
		return NewVersionCommand(), nil
	case "status":
		return NewStatusCommand(), nil
	case "graminfo", "grammars":
		return NewGrammarInfoCommand(), nil
	case "pause":
		return NewPauseCommand(), nil
	case "resume":
		return NewResumeCommand(), nil
	case "terminate":
		return NewTerminateCommand(), nil
	case "die", "shutdown":
		return NewDieCommand(), nil
	default:
		return Command{}, newInvalidCommandError(fields[0])
	}
}
