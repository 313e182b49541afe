package infra

import "github.com/eliteGoblin/privguard/internal/domain"

// keyWOW64Native is KEY_WOW64_64KEY.
const keyWOW64Native uint32 = 0x0100

// viewAccess selects the native 64-bit view for HKLM so a 32-bit build
// does not read or write under WOW6432Node. HKCU keys are not redirected.
func viewAccess(h domain.Hive, access uint32) uint32 {
	if h == domain.HiveLocalMachine {
		return access | keyWOW64Native
	}
	return access
}
