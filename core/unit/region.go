// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package unit

// RegionKey names one entry of the per-region metadata embedded in a
// unit file.
type RegionKey string

const (
	// RegionLanguages lists the languages spoken in the region, in
	// priority order, as a comma separated string.
	RegionLanguages RegionKey = "languages"
	// RegionDrivingSide records which side of the road traffic drives
	// on, "l" or "r".
	RegionDrivingSide RegionKey = "driving-side"
	// RegionAllowAutodelete marks regions the store may delete without
	// asking when a newer version arrives.
	RegionAllowAutodelete RegionKey = "allow-autodelete"
)

// RegionData carries the optional per-region metadata read from a unit
// file header. The registry stores it verbatim and never interprets it.
type RegionData map[RegionKey]string

// Get returns the value for key and whether it was present.
func (d RegionData) Get(key RegionKey) (string, bool) {
	v, ok := d[key]
	return v, ok
}

// Copy returns an independent copy, so a factory can hand the same
// template to several infos.
func (d RegionData) Copy() RegionData {
	if d == nil {
		return nil
	}
	out := make(RegionData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
