package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var goos = runtime.GOOS

// browserCommand returns the launcher for goos, or nil when the platform has none we know of.
func browserCommand(url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	return nil
}

// OpenBrowser hands url to the desktop's default browser without waiting for it to exit.
func OpenBrowser(url string) error {
	cmd := browserCommand(url)
	if cmd == nil {
		return fmt.Errorf("no browser launcher for %s", goos)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
