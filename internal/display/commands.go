package display

import (
	"strings"

	"github.com/hammamikhairi/pantrychef/internal/domain"
)

// CommandKind is a typed REPL command.
type CommandKind int

const (
	CmdSay CommandKind = iota // free text for the assistant
	CmdListen
	CmdStop
	CmdPage
	CmdHelp
	CmdQuit
)

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	Text string      // CmdSay
	Page domain.Page // CmdPage; PageNone when the name is unknown
	Arg  string      // CmdPage raw name
}

var commandWords = map[string]CommandKind{
	"listen": CmdListen,
	"mic":    CmdListen,
	"stop":   CmdStop,
	"mute":   CmdStop,
	"help":   CmdHelp,
	"?":      CmdHelp,
	"quit":   CmdQuit,
	"exit":   CmdQuit,
}

// ParseCommand maps a typed line to a command. Anything that is not a
// reserved word goes to the assistant.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)

	if kind, ok := commandWords[lower]; ok {
		return Command{Kind: kind}
	}
	if rest, ok := strings.CutPrefix(lower, "page "); ok {
		name := strings.TrimSpace(rest)
		return Command{Kind: CmdPage, Page: domain.PageFromString(name), Arg: name}
	}
	return Command{Kind: CmdSay, Text: line}
}

// PrintHelp lists the commands.
func (u *UI) PrintHelp() {
	u.PrintHeader("Commands:")
	u.PrintInstruction("  listen           Start a voice conversation")
	u.PrintInstruction("  stop             Stop listening and speaking")
	u.PrintInstruction("  page <name>      Tell the assistant which page you see")
	u.PrintInstruction("                   (dashboard, shopping, storage, meals, calendar, camera)")
	u.PrintInstruction("  help             Show this message")
	u.PrintInstruction("  quit / exit      Exit")
	u.Println("")
	u.PrintHeader("Anything else is sent to the assistant, for example:")
	u.PrintInstruction("  what can I cook")
	u.PrintInstruction("  recipes for chicken")
	u.PrintInstruction("  go to shopping list")
}
