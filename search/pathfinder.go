// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package search holds the read-path consumers of the map registry: a
// layered intersection path finder and type filters scoped to
// registered units.
package search

import (
	"context"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("mapset.search")

// Mode selects the direction of the intersection passes.
type Mode int

const (
	// ModeAuto picks the direction with the smaller estimated cost.
	ModeAuto Mode = iota

	// ModeTopDown intersects from the highest layer downwards.
	ModeTopDown

	// ModeBottomUp intersects from the lowest layer upwards.
	ModeBottomUp
)

// String is here so that Mode satisfies fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeTopDown:
		return "top-down"
	case ModeBottomUp:
		return "bottom-up"
	}
	return "unknown"
}

// Layer is one level of a layered query, together with the candidate
// features found for that level.
type Layer struct {
	// Type names the level, for example "poi" or "street". Matchers
	// dispatch on it.
	Type string

	// Features holds the candidate feature ids.
	Features []uint32

	// MayHaveDelayed marks a layer whose matcher can emit features
	// beyond Features, discovered only while matching.
	MayHaveDelayed bool
}

// Matcher reports which feature pairs of two adjacent layers belong
// together.
type Matcher interface {
	// Match calls emit for every matching (child, parent) pair. One
	// side's Features are narrowed to the ids still reachable when
	// the pass arrives at that pair of layers. A matcher may emit
	// child features not listed in child.Features when
	// child.MayHaveDelayed is set, and should emit each pair at most
	// once.
	Match(ctx context.Context, child, parent Layer, emit func(child, parent uint32)) error
}

// Path holds one feature id per layer, lowest layer first.
type Path []uint32

// Config holds the parameters of a PathFinder.
type Config struct {
	// Mode fixes the pass direction. ModeAuto estimates the cost of
	// both directions per query and picks the cheaper one.
	Mode Mode
}

// Validate returns an error if the config is not usable.
func (config Config) Validate() error {
	switch config.Mode {
	case ModeAuto, ModeTopDown, ModeBottomUp:
		return nil
	}
	return errors.NotValidf("mode %v", config.Mode)
}

// PathFinder finds chains of features spanning every layer of a
// query, one feature per layer, linked by a Matcher. It is stateless
// between calls and safe for concurrent use.
type PathFinder struct {
	mode Mode
}

// NewPathFinder returns a PathFinder with the supplied config.
func NewPathFinder(config Config) (*PathFinder, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &PathFinder{mode: config.Mode}, nil
}

// Find returns every path across the layers the matcher admits, with
// the lowest layer's feature first in each path.
func (p *PathFinder) Find(ctx context.Context, layers []Layer, matcher Matcher) ([]Path, error) {
	if len(layers) == 0 {
		return nil, nil
	}
	mode := p.mode
	if mode == ModeAuto {
		topDown := passCost(layers, true)
		bottomUp := passCost(layers, false)
		if bottomUp < topDown {
			mode = ModeBottomUp
		} else {
			mode = ModeTopDown
		}
		logger.Tracef("estimated pass cost top-down %d, bottom-up %d, using %v", topDown, bottomUp, mode)
	}
	var (
		paths []Path
		err   error
	)
	if mode == ModeBottomUp {
		paths, err = findBottomUp(ctx, layers, matcher)
	} else {
		paths, err = findTopDown(ctx, layers, matcher)
	}
	return paths, errors.Trace(err)
}

// passCost estimates the work of one intersection pass. Walking from
// the starting layer, each step costs the product of the next layer's
// size and the smallest layer size seen so far.
func passCost(layers []Layer, fromTop bool) uint64 {
	size := func(i int) uint64 {
		if fromTop {
			i = len(layers) - 1 - i
		}
		if len(layers[i].Features) == 0 {
			return 1
		}
		return uint64(len(layers[i].Features))
	}
	var cost uint64
	reachable := size(0)
	for i := 1; i < len(layers); i++ {
		layer := size(i)
		cost += layer * reachable
		if layer < reachable {
			reachable = layer
		}
	}
	return cost
}

// findTopDown narrows the reachable set from the highest layer down,
// recording child to parent edges, then reads the surviving paths off
// the edge maps. Results keep the order in which the lowest layer's
// features were matched.
func findTopDown(ctx context.Context, layers []Layer, matcher Matcher) ([]Path, error) {
	n := len(layers)
	edges := make([]map[uint32]uint32, n-1)
	reachable := layers[n-1].Features

	for i := n - 1; i > 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}

		parent := layers[i]
		if i != n-1 {
			reachable = sortUnique(reachable)
		}
		parent.Features = reachable
		// Delayed parents are extracted on the first pass only; after
		// that the reachable set already contains them.
		parent.MayHaveDelayed = parent.MayHaveDelayed && i == n-1

		child := layers[i-1]

		pairEdges := make(map[uint32]uint32)
		edges[i-1] = pairEdges
		var matched []uint32
		err := matcher.Match(ctx, child, parent, func(childID, parentID uint32) {
			if _, ok := pairEdges[childID]; !ok {
				pairEdges[childID] = parentID
			}
			matched = append(matched, childID)
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		reachable = matched
	}

	return buildPaths(reachable, edges), nil
}

// findBottomUp narrows the reachable set from the lowest layer up.
// Delayed features can surface on the lowest layer while matching, so
// the layer is collected as the first pass runs; the top-down pass
// does not have that problem because the lowest layer is the last one
// it reaches.
func findBottomUp(ctx context.Context, layers []Layer, matcher Matcher) ([]Path, error) {
	n := len(layers)
	edges := make([]map[uint32]uint32, n-1)
	reachable := layers[0].Features
	lowest := append([]uint32(nil), layers[0].Features...)
	first := true

	for i := 0; i+1 < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}

		child := layers[i]
		if i != 0 {
			reachable = sortUnique(reachable)
		}
		child.Features = reachable
		child.MayHaveDelayed = child.MayHaveDelayed && i == 0

		parent := layers[i+1]

		pairEdges := make(map[uint32]uint32)
		edges[i] = pairEdges
		var matched []uint32
		collectLowest := first
		err := matcher.Match(ctx, child, parent, func(childID, parentID uint32) {
			if _, ok := pairEdges[childID]; ok {
				return
			}
			pairEdges[childID] = parentID
			matched = append(matched, parentID)
			if collectLowest {
				lowest = append(lowest, childID)
			}
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		reachable = matched
		first = false
	}

	return buildPaths(sortUnique(lowest), edges), nil
}

// buildPaths follows the recorded edges from each lowest layer
// feature up through every layer, dropping features that never
// reached the top.
func buildPaths(lowest []uint32, edges []map[uint32]uint32) []Path {
	var paths []Path
next:
	for _, id := range lowest {
		path := make(Path, len(edges)+1)
		path[0] = id
		for i, pairEdges := range edges {
			parent, ok := pairEdges[id]
			if !ok {
				continue next
			}
			path[i+1] = parent
			id = parent
		}
		paths = append(paths, path)
	}
	return paths
}

// sortUnique sorts ids in place and drops duplicates.
func sortUnique(ids []uint32) []uint32 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
