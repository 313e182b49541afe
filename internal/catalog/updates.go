package catalog

// Windows Update policy (HKLM).
const (
	UpdatePolicyPath  = `SOFTWARE\Policies\Microsoft\Windows\WindowsUpdate\AU`
	NoAutoUpdateValue = "NoAutoUpdate"
	AUOptionsValue    = "AUOptions"
)

// AUOptions values.
const (
	AUNotifyBeforeDownload uint32 = 2
	AUAutoDownloadNotify   uint32 = 3
	AUAutoDownloadSchedule uint32 = 4
	AULocalAdminChooses    uint32 = 5
)

// AUOptionNames describes each AUOptions value.
var AUOptionNames = map[uint32]string{
	AUNotifyBeforeDownload: "Notify before download",
	AUAutoDownloadNotify:   "Download automatically, notify before install",
	AUAutoDownloadSchedule: "Download automatically, install on schedule",
	AULocalAdminChooses:    "Local administrator chooses",
}
