// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/internal/worker/storewatcher"
	"github.com/juju/mapset/registry"
)

type WatchSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&WatchSuite{})

func (s *WatchSuite) writeConfig(c *gc.C, content string) string {
	path := filepath.Join(c.MkDir(), "store.yaml")
	c.Assert(os.WriteFile(path, []byte(content), 0644), jc.ErrorIsNil)
	return path
}

func (s *WatchSuite) TestInitRequiresDirs(c *gc.C) {
	err := parse(newWatchCommand(), nil)
	c.Assert(err, gc.ErrorMatches, "no store directory specified")
}

func (s *WatchSuite) TestInitAllowsConfigOnly(c *gc.C) {
	command := newWatchCommand()
	err := parse(command, []string{"--config", "store.yaml"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(command.dirs, gc.HasLen, 0)
}

func (s *WatchSuite) TestFlagDefaults(c *gc.C) {
	command := newWatchCommand()
	c.Assert(parse(command, []string{"/var/lib/maps"}), jc.ErrorIsNil)

	c.Check(command.dirs, jc.DeepEquals, []string{"/var/lib/maps"})
	c.Check(command.cacheSize, gc.Equals, registry.DefaultCacheSize)
	c.Check(command.rescan, gc.Equals, storewatcher.DefaultRescanInterval)
	c.Check(command.verbose, jc.IsFalse)
	c.Check(command.removeBad, jc.IsFalse)
}

func (s *WatchSuite) TestConfigFileOverrides(c *gc.C) {
	path := s.writeConfig(c, `
dirs:
  - /srv/maps
cache-size: 128
rescan: 30s
remove-bad: true
`)
	command := newWatchCommand()
	err := parse(command, []string{"--config", path, "--cache-size", "32", "/var/lib/maps"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(command.applyConfigFile(), jc.ErrorIsNil)

	c.Check(command.dirs, jc.DeepEquals, []string{"/srv/maps"})
	c.Check(command.cacheSize, gc.Equals, 128)
	c.Check(command.rescan, gc.Equals, 30*time.Second)
	c.Check(command.removeBad, jc.IsTrue)
}

func (s *WatchSuite) TestConfigFilePartial(c *gc.C) {
	path := s.writeConfig(c, "cache-size: 16\n")
	command := newWatchCommand()
	err := parse(command, []string{"--config", path, "--rescan", "5m", "/var/lib/maps"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(command.applyConfigFile(), jc.ErrorIsNil)

	// Unset file fields keep the command line values.
	c.Check(command.dirs, jc.DeepEquals, []string{"/var/lib/maps"})
	c.Check(command.cacheSize, gc.Equals, 16)
	c.Check(command.rescan, gc.Equals, 5*time.Minute)
}

func (s *WatchSuite) TestConfigFileBadRescan(c *gc.C) {
	path := s.writeConfig(c, "rescan: whenever\n")
	command := newWatchCommand()
	c.Assert(parse(command, []string{"--config", path}), jc.ErrorIsNil)

	err := command.applyConfigFile()
	c.Assert(err, gc.ErrorMatches, `rescan interval "whenever" not valid`)
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *WatchSuite) TestConfigFileMissing(c *gc.C) {
	command := newWatchCommand()
	c.Assert(parse(command, []string{"--config", "/no/such/file.yaml"}), jc.ErrorIsNil)

	err := command.applyConfigFile()
	c.Assert(err, gc.ErrorMatches, "reading store configuration: .*")
}

func (s *WatchSuite) TestConfigFileMalformed(c *gc.C) {
	path := s.writeConfig(c, "dirs: [unbalanced\n")
	command := newWatchCommand()
	c.Assert(parse(command, []string{"--config", path}), jc.ErrorIsNil)

	err := command.applyConfigFile()
	c.Assert(err, gc.ErrorMatches, `parsing ".*store.yaml": .*`)
}

func (s *WatchSuite) TestStatFactoryCreateInfo(c *gc.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "Italy.mwm")
	c.Assert(os.WriteFile(path, make([]byte, 2048), 0644), jc.ErrorIsNil)

	info, err := statFactory{}.CreateInfo(unit.File{Name: "Italy", Version: 220405, Path: path})
	c.Assert(err, jc.ErrorIsNil)
	// The size on disk wins over whatever the caller supplied.
	c.Check(info.File().Size, gc.Equals, int64(2048))

	_, err = statFactory{}.CreateInfo(unit.File{Name: "Spain", Path: filepath.Join(dir, "Spain.mwm")})
	c.Check(err, jc.ErrorIs, os.ErrNotExist)

	_, err = statFactory{}.CreateInfo(unit.File{Name: "Nested", Path: dir})
	c.Check(err, gc.ErrorMatches, `".*" is not a regular file`)
}

func (s *WatchSuite) TestStatFactoryCreateValue(c *gc.C) {
	path := filepath.Join(c.MkDir(), "Italy.mwm")
	c.Assert(os.WriteFile(path, []byte("mwm"), 0644), jc.ErrorIsNil)

	info, err := statFactory{}.CreateInfo(unit.File{Name: "Italy", Version: 220405, Path: path})
	c.Assert(err, jc.ErrorIsNil)
	value, err := statFactory{}.CreateValue(info)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(value.Close(), jc.ErrorIsNil)
}
