package config

import "github.com/versoci/verso/internal/semver"

// ptr is the generic backing for all the typed *Ptr helpers below: YAML
// config fields are pointers so "unset" and "set to the zero value" stay
// distinguishable, and these exist to build that pointer from a literal
// without a throwaway local variable at every call site.
func ptr[T any](v T) *T { return &v }

func stringPtr(s string) *string        { return ptr(s) }
func intPtr(n int) *int                 { return ptr(n) }
func int64Ptr(n int64) *int64           { return ptr(n) }
func boolPtr(b bool) *bool              { return ptr(b) }
func strSlicePtr(ss []string) *[]string { return ptr(ss) }

func incrementPtr(s semver.IncrementStrategy) *semver.IncrementStrategy { return ptr(s) }

func versioningModePtr(m semver.VersioningMode) *semver.VersioningMode { return ptr(m) }

func commitMsgIncrPtr(m semver.CommitMessageIncrementMode) *semver.CommitMessageIncrementMode {
	return ptr(m)
}

func commitMsgConvPtr(c semver.CommitMessageConvention) *semver.CommitMessageConvention {
	return ptr(c)
}
