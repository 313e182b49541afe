package catalog

import (
	"path/filepath"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// Cleanup categories.
const (
	CategorySystemCache     = "System Cache"
	CategoryActivityHistory = "Activity History"
	CategoryTracking        = "Tracking"
)

// Action target IDs.
const (
	ActionAdvertisingID   = "advertising_id"
	ActionActivityHistory = "activity_history"
)

// Advertising ID and activity-feed locations.
const (
	AdvertisingInfoPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\AdvertisingInfo`
	AdvertisingIDValue  = "Id"
	AdvertisingOnValue  = "Enabled"
	SystemPolicyPath    = `SOFTWARE\Policies\Microsoft\Windows\System`
)

// ActivityPolicyValues are set to 0 when activity history is cleared.
var ActivityPolicyValues = []string{"EnableActivityFeed", "PublishUserActivities", "UploadUserActivities"}

// ActivityDBPatterns match the activity database files.
var ActivityDBPatterns = []string{"*.db", "*.db-wal", "*.db-shm"}

// PreservedMRUValues are ordering indexes kept when clearing MRU keys.
var PreservedMRUValues = []string{"MRUList", "MRUListEx"}

// Env holds the directories cleanup targets are resolved against.
// Tests point these at a temp tree. Empty fields disable their targets.
type Env struct {
	WinDir       string
	AppData      string
	LocalAppData string
	Temp         string
}

// CleanupTarget is one thing the cleanup adapter can clear.
type CleanupTarget struct {
	ID          string
	Name        string
	Description string
	Category    string
	Kind        domain.CleanupKind
	Path        string      // CleanupPath, and the activity-db directory for ActionActivityHistory
	Hive        domain.Hive // CleanupRegistry
	Key         string      // CleanupRegistry
}

// under joins parts onto base. An unset base yields "" so a target
// never resolves relative to the working directory.
func under(base string, parts ...string) string {
	if base == "" {
		return ""
	}
	return filepath.Join(append([]string{base}, parts...)...)
}

const explorerKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\`

// CleanupTargets builds the target list for env, in catalog order.
func CleanupTargets(env Env) []CleanupTarget {
	return []CleanupTarget{
		{
			ID: "prefetch", Name: "Prefetch Files", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "Application launch traces",
			Path:        under(env.WinDir, "Prefetch"),
		},
		{
			ID: "recent", Name: "Recent Files", Category: CategoryActivityHistory, Kind: domain.CleanupPath,
			Description: "Recently opened files list",
			Path:        under(env.AppData, "Microsoft", "Windows", "Recent"),
		},
		{
			ID: "temp", Name: "User Temp Files", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "Temporary files of the current user",
			Path:        under(env.Temp),
		},
		{
			ID: "temp_win", Name: "Windows Temp Files", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "System temporary files",
			Path:        under(env.WinDir, "Temp"),
		},
		{
			ID: "thumbnail_cache", Name: "Thumbnail Cache", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "Explorer thumbnail database",
			Path:        under(env.LocalAppData, "Microsoft", "Windows", "Explorer"),
		},
		{
			ID: "icon_cache", Name: "Icon Cache", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "Icon cache database",
			Path:        under(env.LocalAppData, "IconCache.db"),
		},
		{
			ID: "font_cache", Name: "Font Cache", Category: CategorySystemCache, Kind: domain.CleanupPath,
			Description: "Font cache files",
			Path:        under(env.LocalAppData, "Microsoft", "FontCache"),
		},
		{
			ID: "search_history", Name: "Windows Search History", Category: CategoryActivityHistory, Kind: domain.CleanupRegistry,
			Description: "Terms typed into Explorer search",
			Hive:        domain.HiveCurrentUser, Key: explorerKey + "WordWheelQuery",
		},
		{
			ID: "run_history", Name: "Run Dialog History", Category: CategoryActivityHistory, Kind: domain.CleanupRegistry,
			Description: "Commands typed into the Run dialog",
			Hive:        domain.HiveCurrentUser, Key: explorerKey + "RunMRU",
		},
		{
			ID: "typed_paths", Name: "Typed Paths History", Category: CategoryActivityHistory, Kind: domain.CleanupRegistry,
			Description: "Paths typed into the Explorer address bar",
			Hive:        domain.HiveCurrentUser, Key: explorerKey + "TypedPaths",
		},
		{
			ID: ActionAdvertisingID, Name: "Advertising ID", Category: CategoryTracking, Kind: domain.CleanupAction,
			Description: "Generate a new advertising identifier",
			Hive:        domain.HiveCurrentUser, Key: AdvertisingInfoPath,
		},
		{
			ID: ActionActivityHistory, Name: "Activity History", Category: CategoryActivityHistory, Kind: domain.CleanupAction,
			Description: "Timeline databases and activity feed policy",
			Path:        under(env.LocalAppData, "ConnectedDevicesPlatform"),
		},
	}
}
