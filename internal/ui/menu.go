package ui

// MenuAction is a choice made in the assistant menu.
type MenuAction int

const (
	MenuNone MenuAction = iota
	MenuInstruction
	MenuStop
	MenuAsk
	MenuLimit
	MenuInteractive
	MenuDebug
	MenuHelp
)

// MenuPrompt is shown when the assistant menu opens.
const MenuPrompt = "Ctrl-E (n/s/a/l/i/d/h): "

// MenuHelpText lists the assistant menu keys.
const MenuHelpText = `Ctrl-E Commands:
n: Provide a new instruction
s: Stop executing (LLM goes passive)
a: Ask a question (using terminal buffer as context)
l: Set a limit (max number of actions without confirmation)
i: Toggle interactive mode (commands with sudo ALWAYS require confirmation)
d: Toggle debug mode
h or ?: Display this help message

Press Enter or any other key to exit Ctrl-E mode
`

// ParseMenuKey maps a key press to a menu action. Unknown keys leave the menu.
func ParseMenuKey(key rune) MenuAction {
	switch key {
	case 'n', 'N':
		return MenuInstruction
	case 's', 'S':
		return MenuStop
	case 'a', 'A':
		return MenuAsk
	case 'l', 'L':
		return MenuLimit
	case 'i', 'I':
		return MenuInteractive
	case 'd', 'D':
		return MenuDebug
	case 'h', 'H', '?':
		return MenuHelp
	default:
		return MenuNone
	}
}

func (a MenuAction) String() string {
	switch a {
	case MenuInstruction:
		return "instruction"
	case MenuStop:
		return "stop"
	case MenuAsk:
		return "ask"
	case MenuLimit:
		return "limit"
	case MenuInteractive:
		return "interactive"
	case MenuDebug:
		return "debug"
	case MenuHelp:
		return "help"
	default:
		return "none"
	}
}
