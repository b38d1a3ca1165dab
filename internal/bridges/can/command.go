package can

import (
	"fmt"
	"strings"
)

// ParseCommand maps a door payload to its command frame.
//
// Surrounding whitespace is ignored and matching is case-insensitive.
//
// Returns:
//   - Frame: CommandID with a single data byte
//   - error: ErrUnknownCommand for anything but lock or unlock
func ParseCommand(payload []byte) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "lock":
		return Frame{ID: CommandID, Data: []byte{CmdLock}}, nil
	case "unlock":
		return Frame{ID: CommandID, Data: []byte{CmdUnlock}}, nil
	default:
		return Frame{}, fmt.Errorf("%w: %q (expected lock or unlock)", ErrUnknownCommand, strings.TrimSpace(string(payload)))
	}
}
