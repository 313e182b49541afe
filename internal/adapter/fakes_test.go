package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// memStore is an in-memory domain.ConfigStore with subkey enumeration.
type memStore struct {
	mu     sync.Mutex
	keys   map[string]map[string]any // "HKCU\path" -> name -> value
	failOn map[string]error          // "HKCU\path" -> error for every access
}

func newMemStore() *memStore {
	return &memStore{keys: make(map[string]map[string]any), failOn: make(map[string]error)}
}

func storeKey(h domain.Hive, path string) string {
	return h.String() + `\` + path
}

func (m *memStore) fail(h domain.Hive, path string, err error) {
	m.failOn[storeKey(h, path)] = err
}

func (m *memStore) get(h domain.Hive, path, name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(h, path)
	if err := m.failOn[k]; err != nil {
		return nil, err
	}
	vals, ok := m.keys[k]
	if !ok {
		return nil, domain.NewOpError("open key", k, domain.ErrNotFound, "", nil)
	}
	v, ok := vals[name]
	if !ok {
		return nil, domain.NewOpError("read value", name, domain.ErrNotFound, "", nil)
	}
	return v, nil
}

func (m *memStore) set(h domain.Hive, path, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(h, path)
	if err := m.failOn[k]; err != nil {
		return err
	}
	if m.keys[k] == nil {
		m.keys[k] = make(map[string]any)
	}
	m.keys[k][name] = v
	return nil
}

func (m *memStore) GetDWORD(h domain.Hive, path, name string) (uint32, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (m *memStore) SetDWORD(h domain.Hive, path, name string, value uint32) error {
	return m.set(h, path, name, value)
}

func (m *memStore) GetString(h domain.Hive, path, name string) (string, error) {
	v, err := m.get(h, path, name)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *memStore) SetString(h domain.Hive, path, name, value string) error {
	return m.set(h, path, name, value)
}

func (m *memStore) SubKeys(h domain.Hive, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := storeKey(h, path) + `\`
	seen := make(map[string]bool)
	for k := range m.keys {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			child, _, _ := strings.Cut(rest, `\`)
			seen[child] = true
		}
	}
	if len(seen) == 0 {
		if _, ok := m.keys[storeKey(h, path)]; !ok {
			return nil, domain.NewOpError("open key", path, domain.ErrNotFound, "", nil)
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) ValueNames(h domain.Hive, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(h, path)
	if err := m.failOn[k]; err != nil {
		return nil, err
	}
	vals, ok := m.keys[k]
	if !ok {
		return nil, domain.NewOpError("open key", k, domain.ErrNotFound, "", nil)
	}
	out := make([]string, 0, len(vals))
	for n := range vals {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) DeleteValue(h domain.Hive, path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(h, path)
	if _, ok := m.keys[k][name]; !ok {
		return domain.NewOpError("delete value", name, domain.ErrNotFound, "", nil)
	}
	delete(m.keys[k], name)
	return nil
}

// fakeServices is an in-memory domain.ServiceController.
type fakeServices struct {
	start   map[string]domain.StartType
	denied  map[string]bool
	running map[string]bool
}

func newFakeServices(start map[string]domain.StartType) *fakeServices {
	return &fakeServices{start: start, denied: make(map[string]bool), running: make(map[string]bool)}
}

func (f *fakeServices) StartType(name string) (domain.StartType, error) {
	st, ok := f.start[name]
	if !ok {
		return domain.StartOther, domain.NewOpError("open service", name, domain.ErrNotFound, "", nil)
	}
	return st, nil
}

func (f *fakeServices) Disable(name string) error {
	if _, ok := f.start[name]; !ok {
		return domain.NewOpError("open service", name, domain.ErrNotFound, "", nil)
	}
	if f.denied[name] {
		return domain.NewOpError("update service config", name, domain.ErrPermissionDenied, "", nil)
	}
	f.running[name] = false
	f.start[name] = domain.StartDisabled
	return nil
}

func (f *fakeServices) Enable(name string) error {
	if _, ok := f.start[name]; !ok {
		return domain.NewOpError("open service", name, domain.ErrNotFound, "", nil)
	}
	if f.denied[name] {
		return domain.NewOpError("update service config", name, domain.ErrPermissionDenied, "", nil)
	}
	f.start[name] = domain.StartAutomatic
	f.running[name] = true
	return nil
}

// fakeRunner emulates netsh, schtasks and powershell.
type fakeRunner struct {
	mu sync.Mutex

	rules map[string]int    // netsh rule name -> copies; duplicates are allowed
	tasks map[string]string // schtasks path -> "Ready" / "Disabled"

	taskDenied   map[string]bool
	packagesJSON string
	removeResult map[string]domain.CommandResult
	unavailable  bool

	calls [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		rules:        make(map[string]int),
		tasks:        make(map[string]string),
		taskDenied:   make(map[string]bool),
		removeResult: make(map[string]domain.CommandResult),
	}
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (domain.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))

	if f.unavailable {
		return domain.CommandResult{}, fmt.Errorf("%w: %s not found", domain.ErrUnsupported, name)
	}

	switch name {
	case "netsh":
		return f.netsh(args), nil
	case "schtasks":
		return f.schtasks(args), nil
	case "powershell":
		return f.powershell(args), nil
	}
	return domain.CommandResult{ExitCode: 1, Stderr: "unknown command"}, nil
}

func argValue(args []string, prefix string) string {
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, prefix); ok {
			return v
		}
	}
	return ""
}

func (f *fakeRunner) netsh(args []string) domain.CommandResult {
	joined := strings.Join(args, " ")
	name := argValue(args, "name=")
	switch {
	case strings.HasPrefix(joined, "advfirewall firewall show rule"):
		if f.rules[name] > 0 {
			return domain.CommandResult{Stdout: "Rule Name: " + name + "\nEnabled: Yes\nOk.\n"}
		}
		return domain.CommandResult{ExitCode: 1, Stdout: "No rules match the specified criteria.\n"}
	case strings.HasPrefix(joined, "advfirewall firewall add rule"):
		f.rules[name]++
		return domain.CommandResult{Stdout: "Ok.\n"}
	case strings.HasPrefix(joined, "advfirewall firewall delete rule"):
		n := f.rules[name]
		if n == 0 {
			return domain.CommandResult{ExitCode: 1, Stdout: "No rules match the specified criteria.\n"}
		}
		delete(f.rules, name)
		return domain.CommandResult{Stdout: fmt.Sprintf("Deleted %d rule(s).\nOk.\n", n)}
	case strings.HasPrefix(joined, "advfirewall show currentprofile"):
		return domain.CommandResult{Stdout: "Private Profile Settings:\nState ON\nOk.\n"}
	case strings.HasPrefix(joined, "advfirewall export"):
		return domain.CommandResult{Stdout: "Ok.\n"}
	}
	return domain.CommandResult{ExitCode: 1, Stdout: "The following command was not found: " + joined}
}

func (f *fakeRunner) schtasks(args []string) domain.CommandResult {
	path := ""
	for i, a := range args {
		if a == "/TN" && i+1 < len(args) {
			path = args[i+1]
		}
	}
	status, ok := f.tasks[path]
	if !ok {
		return domain.CommandResult{ExitCode: 1, Stderr: "ERROR: The system cannot find the file specified.\n"}
	}

	switch args[0] {
	case "/Query":
		return domain.CommandResult{Stdout: "\nFolder: \\Microsoft\\Windows\nHostName:      PC\nTaskName:      " + path + "\nNext Run Time: N/A\nStatus:        " + status + "\nLogon Mode:    Interactive/Background\n"}
	case "/Change":
		if f.taskDenied[path] {
			return domain.CommandResult{ExitCode: 1, Stderr: "ERROR: Access is denied.\n"}
		}
		if args[len(args)-1] == "/DISABLE" {
			f.tasks[path] = "Disabled"
		} else {
			f.tasks[path] = "Ready"
		}
		return domain.CommandResult{Stdout: "SUCCESS: The parameters of scheduled task \"" + path + "\" have been changed.\n"}
	}
	return domain.CommandResult{ExitCode: 1, Stderr: "ERROR: Invalid syntax.\n"}
}

func (f *fakeRunner) powershell(args []string) domain.CommandResult {
	script := args[len(args)-1]
	if strings.HasPrefix(script, "Get-AppxPackage") {
		return domain.CommandResult{Stdout: f.packagesJSON}
	}
	if strings.HasPrefix(script, "Remove-AppxPackage") {
		full := strings.TrimSuffix(strings.TrimPrefix(script, "Remove-AppxPackage -Package '"), "'")
		if res, ok := f.removeResult[full]; ok {
			return res
		}
		return domain.CommandResult{}
	}
	return domain.CommandResult{ExitCode: 1, Stderr: "unknown script"}
}

func (f *fakeRunner) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c[0] == name {
			n++
		}
	}
	return n
}
