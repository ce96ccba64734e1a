package channel

import (
	"strings"
)

const customIDPrefix = "raid"

// Action is the intent carried by an interactive control.
type Action string

const (
	ActionSignup   Action = "signup"
	ActionWithdraw Action = "withdraw"
	ActionSelect   Action = "select"
)

// CustomID formats the identifier attached to a control for eventID.
func CustomID(action Action, eventID string) string {
	return customIDPrefix + ":" + string(action) + ":" + eventID
}

// ParseCustomID splits an identifier produced by CustomID. ok is false for
// identifiers that do not belong to the roster.
func ParseCustomID(value string) (action Action, eventID string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 3)
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[2] == "" {
		return "", "", false
	}
	switch Action(parts[1]) {
	case ActionSignup, ActionWithdraw, ActionSelect:
		return Action(parts[1]), parts[2], true
	default:
		return "", "", false
	}
}
