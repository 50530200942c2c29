// Package landuse implements the land-use classification workflow: fusing
// region, road/rail/waterway, building, and water-body layers into a single
// non-overlapping five-class partition, and aggregating it into the
// area/fraction table the water-balance model consumes.
//
// # Pipeline
//
// The workflow runs as a fixed sequence of pure geometric stages:
//
//  1. Normalize the region polygon (repair, explode).
//  2. Join the merged line layers against the mapping table and buffer each
//     class selection into polygons.
//  3. Clip every layer to the region.
//  4. Compose the class-tagged layers into one partition with a strict
//     top-wins overlay in priority order.
//  5. Dissolve by class and derive the area/fraction table.
//
// See [FromOSM] for the orchestrator and [BuildTable] for the aggregation.
package landuse

import (
	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// Class is one of the five land-use classes of the water-balance model.
type Class string

// The five recognized land-use classes.
const (
	Unpaved     Class = "unpaved"
	Water       Class = "water"
	OpenPaved   Class = "open_paved"
	ClosedPaved Class = "closed_paved"
	PavedRoof   Class = "paved_roof"
)

// OverlayOrder is the fixed priority order of the composition: later classes
// always win over earlier ones where layers overlap. Built structures take
// precedence over pavement, pavement over water-edge buffers, and everything
// over the unpaved base.
var OverlayOrder = []Class{Unpaved, Water, OpenPaved, ClosedPaved, PavedRoof}

// shortCodes maps classes to the model's short codes.
var shortCodes = map[Class]string{
	OpenPaved:   "op",
	Water:       "ow",
	Unpaved:     "up",
	PavedRoof:   "pr",
	ClosedPaved: "cp",
}

// Code returns the model short code for the class (e.g. "ow" for water).
func (c Class) Code() string {
	return shortCodes[c]
}

// Codes lists the model short codes of all five classes.
func Codes() []string {
	codes := make([]string, 0, len(OverlayOrder))
	for _, c := range OverlayOrder {
		codes = append(codes, c.Code())
	}
	return codes
}

// ParseClass validates a land-use class name.
func ParseClass(s string) (Class, error) {
	c := Class(s)
	if _, ok := shortCodes[c]; !ok {
		return "", errors.New(errors.ErrCodeInvalidClass,
			"unknown land-use class %q: valid classes are paved_roof, closed_paved, open_paved, unpaved, water", s)
	}
	return c, nil
}
