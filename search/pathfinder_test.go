// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package search_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/mapset/search"
)

type PathFinderSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&PathFinderSuite{})

// ruleMatcher matches child features to parent features by a static
// rule table, recording the order in which layer pairs were visited.
type ruleMatcher struct {
	// edges maps child layer type to child feature to its parents.
	edges map[string]map[uint32][]uint32

	// delayed lists extra child features per layer type, only emitted
	// when the child layer arrives with MayHaveDelayed set.
	delayed map[string][]uint32

	calls []string
	err   error
}

func (m *ruleMatcher) Match(_ context.Context, child, parent search.Layer, emit func(uint32, uint32)) error {
	m.calls = append(m.calls, child.Type+"->"+parent.Type)
	if m.err != nil {
		return m.err
	}
	inParent := make(map[uint32]bool)
	for _, id := range parent.Features {
		inParent[id] = true
	}
	match := func(childID uint32) {
		for _, parentID := range m.edges[child.Type][childID] {
			if inParent[parentID] {
				emit(childID, parentID)
			}
		}
	}
	for _, id := range child.Features {
		match(id)
	}
	if child.MayHaveDelayed {
		for _, id := range m.delayed[child.Type] {
			match(id)
		}
	}
	return nil
}

func (s *PathFinderSuite) newFinder(c *gc.C, mode search.Mode) *search.PathFinder {
	finder, err := search.NewPathFinder(search.Config{Mode: mode})
	c.Assert(err, jc.ErrorIsNil)
	return finder
}

func (s *PathFinderSuite) TestValidateConfig(c *gc.C) {
	for _, mode := range []search.Mode{search.ModeAuto, search.ModeTopDown, search.ModeBottomUp} {
		c.Check(search.Config{Mode: mode}.Validate(), jc.ErrorIsNil)
	}
	err := search.Config{Mode: search.Mode(42)}.Validate()
	c.Check(err, gc.ErrorMatches, "mode unknown not valid")
	c.Check(err, jc.ErrorIs, errors.NotValid)

	_, err = search.NewPathFinder(search.Config{Mode: search.Mode(-1)})
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *PathFinderSuite) TestModeString(c *gc.C) {
	c.Check(search.ModeAuto.String(), gc.Equals, "auto")
	c.Check(search.ModeTopDown.String(), gc.Equals, "top-down")
	c.Check(search.ModeBottomUp.String(), gc.Equals, "bottom-up")
	c.Check(search.Mode(42).String(), gc.Equals, "unknown")
}

func (s *PathFinderSuite) TestNoLayers(c *gc.C) {
	finder := s.newFinder(c, search.ModeAuto)
	paths, err := finder.Find(context.Background(), nil, &ruleMatcher{})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(paths, gc.IsNil)
}

func (s *PathFinderSuite) TestSingleLayer(c *gc.C) {
	layers := []search.Layer{{Type: "poi", Features: []uint32{3, 1, 2}}}
	matcher := &ruleMatcher{}

	finder := s.newFinder(c, search.ModeTopDown)
	paths, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	// A single layer has no pairs to match; each feature is its own
	// path, in the order given.
	c.Check(paths, jc.DeepEquals, []search.Path{{3}, {1}, {2}})
	c.Check(matcher.calls, gc.HasLen, 0)

	finder = s.newFinder(c, search.ModeBottomUp)
	paths, err = finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	// The bottom-up direction reports the lowest layer deduplicated
	// and sorted.
	c.Check(paths, jc.DeepEquals, []search.Path{{1}, {2}, {3}})
}

func (s *PathFinderSuite) TestTwoLayersTopDown(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1, 2, 3}},
		{Type: "street", Features: []uint32{10, 11}},
	}
	matcher := &ruleMatcher{edges: map[string]map[uint32][]uint32{
		"poi": {1: {10}, 2: {11}},
	}}
	finder := s.newFinder(c, search.ModeTopDown)

	paths, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(paths, jc.DeepEquals, []search.Path{{1, 10}, {2, 11}})
	c.Check(matcher.calls, jc.DeepEquals, []string{"poi->street"})
}

func (s *PathFinderSuite) TestTwoLayersBottomUp(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1, 2, 3}},
		{Type: "street", Features: []uint32{10, 11}},
	}
	matcher := &ruleMatcher{edges: map[string]map[uint32][]uint32{
		"poi": {1: {10}, 2: {11}},
	}}
	finder := s.newFinder(c, search.ModeBottomUp)

	paths, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(paths, jc.DeepEquals, []search.Path{{1, 10}, {2, 11}})
	c.Check(matcher.calls, jc.DeepEquals, []string{"poi->street"})
}

func (s *PathFinderSuite) TestThreeLayersNarrowReachable(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1, 2}},
		{Type: "building", Features: []uint32{20, 21}},
		{Type: "street", Features: []uint32{30}},
	}
	matcher := &ruleMatcher{edges: map[string]map[uint32][]uint32{
		"poi":      {1: {20}, 2: {21}},
		"building": {20: {30}},
	}}

	// Building 21 has no street, so poi 2 must not survive either.
	for _, mode := range []search.Mode{search.ModeTopDown, search.ModeBottomUp} {
		finder := s.newFinder(c, mode)
		paths, err := finder.Find(context.Background(), layers, matcher)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(paths, jc.DeepEquals, []search.Path{{1, 20, 30}}, gc.Commentf("mode %v", mode))
	}
}

func (s *PathFinderSuite) TestAutoPicksBottomUp(c *gc.C) {
	// One poi against many buildings and streets is cheaper to walk
	// from the bottom.
	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1}},
		{Type: "building", Features: manyFeatures(20, 10)},
		{Type: "street", Features: manyFeatures(40, 10)},
	}
	matcher := &ruleMatcher{}
	finder := s.newFinder(c, search.ModeAuto)

	_, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(matcher.calls, jc.DeepEquals, []string{"poi->building", "building->street"})
}

func (s *PathFinderSuite) TestAutoPicksTopDown(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", Features: manyFeatures(1, 10)},
		{Type: "building", Features: manyFeatures(20, 10)},
		{Type: "street", Features: []uint32{40}},
	}
	matcher := &ruleMatcher{}
	finder := s.newFinder(c, search.ModeAuto)

	_, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(matcher.calls, jc.DeepEquals, []string{"building->street", "poi->building"})
}

func (s *PathFinderSuite) TestDelayedFeaturesBottomUp(c *gc.C) {
	// The poi layer starts empty; poi 7 only surfaces while matching
	// against the street layer.
	layers := []search.Layer{
		{Type: "poi", MayHaveDelayed: true},
		{Type: "street", Features: []uint32{10}},
	}
	matcher := &ruleMatcher{
		edges:   map[string]map[uint32][]uint32{"poi": {7: {10}}},
		delayed: map[string][]uint32{"poi": {7}},
	}
	finder := s.newFinder(c, search.ModeBottomUp)

	paths, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(paths, jc.DeepEquals, []search.Path{{7, 10}})
}

func (s *PathFinderSuite) TestDelayedFeaturesTopDown(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", MayHaveDelayed: true},
		{Type: "street", Features: []uint32{10}},
	}
	matcher := &ruleMatcher{
		edges:   map[string]map[uint32][]uint32{"poi": {7: {10}}},
		delayed: map[string][]uint32{"poi": {7}},
	}
	finder := s.newFinder(c, search.ModeTopDown)

	paths, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(paths, jc.DeepEquals, []search.Path{{7, 10}})
}

func (s *PathFinderSuite) TestCancelled(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1}},
		{Type: "street", Features: []uint32{10}},
	}
	matcher := &ruleMatcher{}
	finder := s.newFinder(c, search.ModeTopDown)

	_, err := finder.Find(ctx, layers, matcher)
	c.Assert(err, jc.ErrorIs, context.Canceled)
	c.Check(matcher.calls, gc.HasLen, 0)
}

func (s *PathFinderSuite) TestMatcherError(c *gc.C) {
	layers := []search.Layer{
		{Type: "poi", Features: []uint32{1}},
		{Type: "street", Features: []uint32{10}},
	}
	matcher := &ruleMatcher{err: errors.New("storage exploded")}
	finder := s.newFinder(c, search.ModeBottomUp)

	_, err := finder.Find(context.Background(), layers, matcher)
	c.Assert(err, gc.ErrorMatches, "storage exploded")
}

func manyFeatures(start uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = start + uint32(i)
	}
	return out
}
