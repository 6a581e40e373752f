// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package search_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/mapset/registry"
	"github.com/juju/mapset/registry/registrytest"
	"github.com/juju/mapset/search"
)

type FeatureIDSuite struct {
	testing.IsolationSuite

	reg *registry.Registry
}

var _ = gc.Suite(&FeatureIDSuite{})

func (s *FeatureIDSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	var err error
	s.reg, err = registry.New(registry.Config{Factory: registrytest.NewFactory()})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *FeatureIDSuite) TestIsValid(c *gc.C) {
	c.Check(search.FeatureID{}.IsValid(), jc.IsFalse)

	id, res, err := s.reg.Register(testUnitFile("Italy", 220405))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(res, gc.Equals, registry.ResultSuccess)

	fid := search.FeatureID{Unit: id, Index: 7}
	c.Check(fid.IsValid(), jc.IsTrue)

	c.Assert(s.reg.Deregister("Italy"), jc.IsTrue)
	c.Check(fid.IsValid(), jc.IsFalse)
}

func (s *FeatureIDSuite) TestString(c *gc.C) {
	id, _, err := s.reg.Register(testUnitFile("Italy", 220405))
	c.Assert(err, jc.ErrorIsNil)

	c.Check(search.FeatureID{Unit: id, Index: 7}.String(), gc.Equals, "Italy-220405/7")
	c.Check(search.FeatureID{}.String(), gc.Equals, "<empty>/0")
}

func (s *FeatureIDSuite) TestAsMapKey(c *gc.C) {
	id, _, err := s.reg.Register(testUnitFile("Italy", 220405))
	c.Assert(err, jc.ErrorIsNil)

	seen := map[search.FeatureID]string{
		{Unit: id, Index: 1}: "one",
		{Unit: id, Index: 2}: "two",
	}
	c.Check(seen[search.FeatureID{Unit: id, Index: 1}], gc.Equals, "one")
	c.Check(seen[search.FeatureID{Unit: id, Index: 2}], gc.Equals, "two")
	c.Check(seen, gc.HasLen, 2)
}
