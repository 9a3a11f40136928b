package config

// WasExplicitlySet checks if a flag was explicitly set by the user
func WasExplicitlySet(flags map[string]bool, flagName string) bool {
	if flags == nil {
		return false
	}
	return flags[flagName]
}

// MergeString merges a string value, using override only if explicitly set
func MergeString(base, override, flagName string, flags map[string]bool) string {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

// MergeInt merges an int value, using override only if explicitly set
func MergeInt(base, override int, flagName string, flags map[string]bool) int {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

// MergeInt64 merges an int64 value, using override only if explicitly set
func MergeInt64(base, override int64, flagName string, flags map[string]bool) int64 {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

// MergeUint64 merges a uint64 value, using override only if explicitly set
func MergeUint64(base, override uint64, flagName string, flags map[string]bool) uint64 {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

// MergeBool merges a bool value, using override only if explicitly set
func MergeBool(base, override bool, flagName string, flags map[string]bool) bool {
	if WasExplicitlySet(flags, flagName) {
		return override
	}
	return base
}

// MergeStringSlice merges a string slice, using override only if explicitly set
func MergeStringSlice(base, override []string, flagName string, flags map[string]bool) []string {
	if WasExplicitlySet(flags, flagName) && len(override) > 0 {
		return override
	}
	return base
}

// MergeIntSlice merges an int slice, using override only if explicitly set
func MergeIntSlice(base, override []int, flagName string, flags map[string]bool) []int {
	if WasExplicitlySet(flags, flagName) && len(override) > 0 {
		return override
	}
	return base
}

// MergeInt64Slice merges an int64 slice, using override only if explicitly set
func MergeInt64Slice(base, override []int64, flagName string, flags map[string]bool) []int64 {
	if WasExplicitlySet(flags, flagName) && len(override) > 0 {
		return override
	}
	return base
}
