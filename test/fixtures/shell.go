package fixtures

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// FakeShell emulates netsh rules and schtasks state.
// Like netsh, it keeps duplicate rules of one name. Unknown tasks report Ready.
type FakeShell struct {
	mu       sync.Mutex
	rules    map[string]int
	disabled map[string]bool
	exported []string
}

// NewFakeShell creates a shell with no firewall rules and every task enabled.
func NewFakeShell() *FakeShell {
	return &FakeShell{rules: make(map[string]int), disabled: make(map[string]bool)}
}

// Run implements domain.CommandRunner.
func (s *FakeShell) Run(ctx context.Context, name string, args ...string) (domain.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case "netsh":
		return s.netsh(args), nil
	case "schtasks":
		return s.schtasks(args), nil
	}
	return domain.CommandResult{ExitCode: 1, Stderr: name + " is not recognized"}, nil
}

// RuleCount returns how many rules exist, duplicates included.
func (s *FakeShell) RuleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, copies := range s.rules {
		n += copies
	}
	return n
}

// Exported returns the paths passed to netsh export.
func (s *FakeShell) Exported() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.exported...)
}

func (s *FakeShell) netsh(args []string) domain.CommandResult {
	joined := strings.Join(args, " ")
	name := ""
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "name="); ok {
			name = v
		}
	}
	switch {
	case strings.HasPrefix(joined, "advfirewall firewall show rule"):
		if s.rules[name] > 0 {
			return domain.CommandResult{Stdout: "Rule Name: " + name + "\nOk.\n"}
		}
		return domain.CommandResult{ExitCode: 1, Stdout: "No rules match the specified criteria.\n"}
	case strings.HasPrefix(joined, "advfirewall firewall add rule"):
		s.rules[name]++
		return domain.CommandResult{Stdout: "Ok.\n"}
	case strings.HasPrefix(joined, "advfirewall firewall delete rule"):
		n := s.rules[name]
		if n == 0 {
			return domain.CommandResult{ExitCode: 1, Stdout: "No rules match the specified criteria.\n"}
		}
		delete(s.rules, name)
		return domain.CommandResult{Stdout: fmt.Sprintf("Deleted %d rule(s).\nOk.\n", n)}
	case strings.HasPrefix(joined, "advfirewall show currentprofile"):
		return domain.CommandResult{Stdout: "State ON\nOk.\n"}
	case strings.HasPrefix(joined, "advfirewall export"):
		s.exported = append(s.exported, args[len(args)-1])
		return domain.CommandResult{Stdout: "Ok.\n"}
	}
	return domain.CommandResult{ExitCode: 1, Stdout: "The following command was not found: " + joined}
}

func (s *FakeShell) schtasks(args []string) domain.CommandResult {
	path := ""
	for i, a := range args {
		if a == "/TN" && i+1 < len(args) {
			path = args[i+1]
		}
	}
	switch args[0] {
	case "/Query":
		status := "Ready"
		if s.disabled[path] {
			status = "Disabled"
		}
		return domain.CommandResult{Stdout: "TaskName:      " + path + "\nStatus:        " + status + "\n"}
	case "/Change":
		s.disabled[path] = args[len(args)-1] == "/DISABLE"
		return domain.CommandResult{Stdout: "SUCCESS\n"}
	}
	return domain.CommandResult{ExitCode: 1, Stderr: "ERROR: Invalid syntax.\n"}
}

// FakeServices keeps service start types in memory. Unknown services
// start Automatic.
type FakeServices struct {
	mu    sync.Mutex
	types map[string]domain.StartType
}

// NewFakeServices creates a controller with every service Automatic.
func NewFakeServices() *FakeServices {
	return &FakeServices{types: make(map[string]domain.StartType)}
}

func (f *FakeServices) StartType(name string) (domain.StartType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.types[name]; ok {
		return t, nil
	}
	return domain.StartAutomatic, nil
}

func (f *FakeServices) Disable(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[name] = domain.StartDisabled
	return nil
}

func (f *FakeServices) Enable(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[name] = domain.StartAutomatic
	return nil
}

var (
	_ domain.CommandRunner     = (*FakeShell)(nil)
	_ domain.ServiceController = (*FakeServices)(nil)
)
