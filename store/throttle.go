package store

const ThrottleCooldownCapSeconds = 30

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	if failCount < 0 {
		failCount = 0
	}
	if failCount >= 5 {
		return ThrottleCooldownCapSeconds
	}
	return 1 << failCount
}
