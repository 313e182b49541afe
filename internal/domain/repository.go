package domain

import "context"

// Adapter translates one external OS subsystem into ConfigItems.
// Implementations are stateless per call; callers must not issue a second
// request on the same adapter before the first completes.
type Adapter interface {
	// Domain returns which privacy domain this adapter reports on.
	Domain() Domain

	// Scan enumerates current state without mutating it.
	// A non-nil error means enumeration itself failed; the slice is then empty.
	Scan(ctx context.Context) ([]ConfigItem, error)

	// Apply attempts every item even if earlier items fail.
	// progress may be nil.
	Apply(ctx context.Context, items []ConfigItem, desired DesiredState, progress ProgressFunc) BulkResult
}

// Hive selects the configuration-store root.
type Hive int

const (
	HiveLocalMachine Hive = iota
	HiveCurrentUser
)

func (h Hive) String() string {
	switch h {
	case HiveLocalMachine:
		return "HKLM"
	case HiveCurrentUser:
		return "HKCU"
	default:
		return "HK?"
	}
}

// ConfigStore is the host configuration store (the Windows registry).
// Missing keys or values return ErrNotFound; access failures ErrPermissionDenied.
type ConfigStore interface {
	// GetDWORD reads a 32-bit integer value.
	GetDWORD(hive Hive, path, name string) (uint32, error)

	// SetDWORD creates the key if needed and writes a 32-bit integer value.
	SetDWORD(hive Hive, path, name string, value uint32) error

	// GetString reads a string value.
	GetString(hive Hive, path, name string) (string, error)

	// SetString creates the key if needed and writes a string value.
	SetString(hive Hive, path, name, value string) error

	// SubKeys lists the immediate subkey names of path.
	SubKeys(hive Hive, path string) ([]string, error)

	// ValueNames lists the value names stored directly under path.
	ValueNames(hive Hive, path string) ([]string, error)

	// DeleteValue removes one value.
	DeleteValue(hive Hive, path, name string) error
}

// StartType is a service start mode.
type StartType string

const (
	StartAutomatic StartType = "auto"
	StartManual    StartType = "demand"
	StartDisabled  StartType = "disabled"
	StartOther     StartType = "other"
)

// ServiceController toggles background services.
type ServiceController interface {
	// StartType returns the configured start mode.
	StartType(name string) (StartType, error)

	// Disable stops the service (stop failures are ignored) and sets it Disabled.
	Disable(name string) error

	// Enable sets the service Automatic and starts it (start failures are ignored).
	Enable(name string) error
}

// CommandResult is the captured outcome of an external command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Diagnostic returns stderr, or stdout when stderr is empty.
func (r CommandResult) Diagnostic() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// CommandRunner executes external utilities.
// A non-zero exit is reported in CommandResult, not as an error;
// the error is reserved for failing to run the command at all.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// Size returns the total recursive size of path. Unreadable entries are skipped.
	Size(path string) int64

	// Clean removes a file, or every entry inside a directory.
	// Returns the bytes actually removed.
	Clean(path string) (int64, error)

	// SizeMatching sums regular files under root whose base name matches.
	SizeMatching(root string, match func(name string) bool) int64

	// RemoveMatching deletes files under root whose base name matches.
	RemoveMatching(root string, match func(name string) bool) (int64, error)

	// ReadFile returns the file content.
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic replaces path with data via a temp file and rename.
	WriteFileAtomic(path string, data []byte) error
}

// ProcessManager resolves process details.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// Name returns the executable name of pid.
	Name(ctx context.Context, pid int) (string, error)
}

// RawConnection is one socket as reported by the OS.
type RawConnection struct {
	PID        int
	LocalIP    string
	LocalPort  uint32
	RemoteIP   string
	RemotePort uint32
	Status     string
}

// ConnectionLister enumerates live inet sockets.
type ConnectionLister interface {
	Connections(ctx context.Context) ([]RawConnection, error)
}

// HostnameResolver performs reverse lookups.
type HostnameResolver interface {
	LookupAddr(ctx context.Context, ip string) ([]string, error)
}

// HistoryStore persists the score history document.
type HistoryStore interface {
	// Load returns the stored document, or an empty one if none exists.
	Load() (*ScoreHistoryDocument, error)

	// Save replaces the stored document.
	Save(doc *ScoreHistoryDocument) error
}

// ProfileStore keeps named settings profiles.
type ProfileStore interface {
	Save(name string, p Profile) error
	Load(name string) (*Profile, error)
	List() ([]SavedProfile, error)
	Delete(name string) error
	Close() error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
