package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// stdinPrompter collects directory consent on the terminal. Only the CLI
// constructs one; the web and TUI surfaces restore grants silently.
type stdinPrompter struct {
	assumeYes bool
}

func (p stdinPrompter) ConfirmGrant(dir string) bool {
	return p.confirm(fmt.Sprintf("Grant write access to %s?", dir))
}

func (p stdinPrompter) ConfirmCreate(path string) bool {
	return p.confirm(fmt.Sprintf("%s does not exist. Create it?", path))
}

func (p stdinPrompter) confirm(question string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
