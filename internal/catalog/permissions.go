package catalog

import "github.com/eliteGoblin/privguard/internal/domain"

// ConsentStorePath is the HKCU root of per-capability consent records.
const ConsentStorePath = `SOFTWARE\Microsoft\Windows\CurrentVersion\CapabilityAccessManager\ConsentStore`

// Consent record layout.
const (
	ConsentValueName = "Value"
	ConsentAllow     = "Allow"
	ConsentDeny      = "Deny"

	// NonPackagedKey groups desktop apps and is not an app itself.
	NonPackagedKey = "NonPackaged"
)

// CapabilityInfo describes one consent-store capability.
type CapabilityInfo struct {
	Capability  domain.Capability
	DisplayName string
	Description string
}

// Capabilities lists every known capability.
var Capabilities = []CapabilityInfo{
	{"webcam", "Camera", "Allow apps to access your camera"},
	{"microphone", "Microphone", "Allow apps to access your microphone"},
	{"location", "Location", "Allow apps to access your location"},
	{"userNotificationListener", "Notifications", "Allow apps to access your notifications"},
	{"userAccountInformation", "Account Info", "Allow apps to access your account info"},
	{"contacts", "Contacts", "Allow apps to access your contacts"},
	{"appointments", "Calendar", "Allow apps to access your calendar"},
	{"phoneCall", "Phone Calls", "Allow apps to make phone calls"},
	{"phoneCallHistory", "Call History", "Allow apps to access your call history"},
	{"email", "Email", "Allow apps to access your email"},
	{"userDataTasks", "Tasks", "Allow apps to access your tasks"},
	{"chat", "Messaging", "Allow apps to read or send messages"},
	{"radios", "Radios", "Allow apps to control device radios"},
	{"bluetoothSync", "Bluetooth", "Allow apps to sync with Bluetooth devices"},
	{"appDiagnostics", "App Diagnostics", "Allow apps to access diagnostic info about other apps"},
	{"documentsLibrary", "Documents", "Allow apps to access your documents library"},
	{"picturesLibrary", "Pictures", "Allow apps to access your pictures library"},
	{"videosLibrary", "Videos", "Allow apps to access your videos library"},
	{"broadFileSystemAccess", "File System", "Allow apps to access your file system"},
}

// MainCapabilities form the scanned and scored set.
var MainCapabilities = []domain.Capability{
	"webcam",
	"microphone",
	"location",
	"userNotificationListener",
	"contacts",
	"appointments",
}

// LookupCapability returns the info for c. Unknown capabilities get
// their key as display name.
func LookupCapability(c domain.Capability) (CapabilityInfo, bool) {
	for _, info := range Capabilities {
		if info.Capability == c {
			return info, true
		}
	}
	return CapabilityInfo{Capability: c, DisplayName: string(c)}, false
}

// ConsentKey returns the consent-store key of c.
func ConsentKey(c domain.Capability) string {
	return ConsentStorePath + `\` + string(c)
}
