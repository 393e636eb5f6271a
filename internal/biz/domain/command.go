package domain

import (
	"regexp"
	"strings"
)

// CommandKind identifies an operator command.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdHelp
	CmdRooms
	CmdSummaryAll
	CmdSummaryRoom
	CmdTodoAll
	CmdTodoRoom
	CmdUnknown // looks like a command attempt but does not match the grammar
)

// Command is a parsed operator command from a control-room message.
type Command struct {
	Kind  CommandKind
	Alias string // room alias for CmdSummaryRoom / CmdTodoRoom
}

// Match table ordered by decreasing specificity so "summary all" never
// parses as "summary <alias>".
var commandTable = []struct {
	kind CommandKind
	re   *regexp.Regexp
}{
	{CmdHelp, regexp.MustCompile(`^help$`)},
	{CmdRooms, regexp.MustCompile(`^rooms$`)},
	{CmdSummaryAll, regexp.MustCompile(`^summary\s+all$`)},
	{CmdSummaryRoom, regexp.MustCompile(`^summary\s+(\S+)$`)},
	{CmdTodoAll, regexp.MustCompile(`^todo\s+all$`)},
	{CmdTodoRoom, regexp.MustCompile(`^todo\s+(\S+)$`)},
}

var commandPrefixes = map[string]bool{
	"help": true, "rooms": true, "room": true,
	"summary": true, "todo": true, "task": true, "tasks": true,
}

// ParseCommand parses a whole-line, case-insensitive command.
// Ordinary chat returns CmdNone; input starting with a recognized keyword
// that does not match the grammar returns CmdUnknown.
func ParseCommand(line string) Command {
	body := strings.ToLower(strings.TrimSpace(line))
	for _, entry := range commandTable {
		m := entry.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		cmd := Command{Kind: entry.kind}
		if len(m) > 1 {
			cmd.Alias = m[1]
		}
		return cmd
	}
	if looksLikeCommand(body) {
		return Command{Kind: CmdUnknown}
	}
	return Command{Kind: CmdNone}
}

func looksLikeCommand(body string) bool {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return false
	}
	return commandPrefixes[fields[0]]
}
