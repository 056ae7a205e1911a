package player

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminalSize returns the terminal dimensions in cells
func terminalSize() (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
