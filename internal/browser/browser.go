// Package browser opens polling web pages in the user's default browser,
// used by the results command to jump from the terminal to the richer web
// results view.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Commander abstracts process launching so tests can intercept the call
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander launches processes on the host
type RealCommander struct{}

// Start launches a command without waiting for it to finish
func (RealCommander) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	return cmd.Start()
}

var defaultCommander Commander = RealCommander{}

// Open opens the URL in the default browser
func Open(url string) error {
	return OpenWithCommander(url, defaultCommander, runtime.GOOS)
}

// OpenWithCommander picks the platform's URL launcher and runs it through
// the given commander. The commander and OS are injectable for testing.
func OpenWithCommander(url string, commander Commander, goos string) error {
	var name string
	var args []string

	switch goos {
	case "linux":
		name = "xdg-open"
		args = []string{url}
	case "darwin":
		name = "open"
		args = []string{url}
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform: %s", goos)
	}

	return commander.Start(name, args...)
}
