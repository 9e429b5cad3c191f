package models

import "strings"

// Branch locations are a fixed enumeration; each branch has a paired virtual
// truck sub-location identified by the "-truck" suffix.
const (
	LocationPhxN  = "PHX-N"
	LocationPhxSW = "PHX-SW"
	LocationPhxSE = "PHX-SE"

	TruckSuffix = "-truck"
)

var branchLocations = []string{LocationPhxN, LocationPhxSW, LocationPhxSE}

var branchNames = map[string]string{
	LocationPhxN:  "Phx - N",
	LocationPhxSW: "Phx - SW",
	LocationPhxSE: "Phx - SE",
}

// BranchLocations returns the known physical branch locations.
func BranchLocations() []string {
	out := make([]string, len(branchLocations))
	copy(out, branchLocations)
	return out
}

// IsTruckLocation reports whether the location refers to a truck sub-location.
func IsTruckLocation(location string) bool {
	return strings.HasSuffix(location, TruckSuffix)
}

// BaseLocation strips the truck suffix, yielding the owning branch.
func BaseLocation(location string) string {
	return strings.TrimSuffix(location, TruckSuffix)
}

// TruckLocation returns the truck sub-location paired with a branch.
func TruckLocation(branch string) string {
	return BaseLocation(branch) + TruckSuffix
}

// IsKnownLocation reports whether the location is a known branch or its truck
// sub-location.
func IsKnownLocation(location string) bool {
	_, ok := branchNames[BaseLocation(location)]
	return ok
}

// LocationLabel maps a location to its display name, e.g. "Phx - N" or
// "Phx - N (Truck Inventory)".
func LocationLabel(location string) string {
	name, ok := branchNames[BaseLocation(location)]
	if !ok {
		return location
	}
	if IsTruckLocation(location) {
		return name + " (Truck Inventory)"
	}
	return name
}
