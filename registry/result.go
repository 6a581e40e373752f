// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

// Result reports the outcome of a registration attempt.
type Result int

const (
	// ResultSuccess means the unit is now registered and an identifier
	// for it was returned.
	ResultSuccess Result = iota
	// ResultAlreadyExists means this exact version was already present.
	// The existing identifier was returned; if the unit had been marked
	// for deregistration it was revived.
	ResultAlreadyExists
	// ResultTooOld means a newer version of the unit is already
	// present, so the file was refused.
	ResultTooOld
	// ResultUnsupportedFormat means the file's format version cannot be
	// read by this build.
	ResultUnsupportedFormat
	// ResultBadFile means the file's metadata could not be read at all.
	ResultBadFile
)

// String is here so that Result satisfies fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultAlreadyExists:
		return "version-already-exists"
	case ResultTooOld:
		return "version-too-old"
	case ResultUnsupportedFormat:
		return "unsupported-format"
	case ResultBadFile:
		return "bad-file"
	}
	return "unknown"
}

const numResults = int(ResultBadFile) + 1
