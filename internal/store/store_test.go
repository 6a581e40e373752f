// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package store_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/mutex/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/internal/store"
	coretesting "github.com/juju/mapset/testing"
)

type StoreSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&StoreSuite{})

func (s *StoreSuite) writeFile(c *gc.C, path string, size int) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	c.Assert(err, jc.ErrorIsNil)
	err = os.WriteFile(path, make([]byte, size), 0644)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *StoreSuite) TestFindAll(c *gc.C) {
	root := c.MkDir()
	s.writeFile(c, filepath.Join(root, "220405", "Italy.mwm"), 100)
	s.writeFile(c, filepath.Join(root, "220405", "Spain.mwm"), 200)
	s.writeFile(c, filepath.Join(root, "220506", "Italy.mwm"), 300)
	s.writeFile(c, filepath.Join(root, "Legacy.mwm"), 400)
	s.writeFile(c, filepath.Join(root, ".hidden.mwm"), 1)
	s.writeFile(c, filepath.Join(root, "220506", "France.mwm.downloading"), 1)
	s.writeFile(c, filepath.Join(root, "220506", "France.mwm.ready"), 1)
	s.writeFile(c, filepath.Join(root, "staging", "Other.mwm"), 1)
	s.writeFile(c, filepath.Join(root, "README"), 1)

	files, err := store.FindAll([]string{root})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(files, jc.DeepEquals, []unit.File{
		{Name: "Italy", Version: 220506, Path: filepath.Join(root, "220506", "Italy.mwm"), Size: 300},
		{Name: "Italy", Version: 220405, Path: filepath.Join(root, "220405", "Italy.mwm"), Size: 100},
		{Name: "Legacy", Version: unit.VersionUnknown, Path: filepath.Join(root, "Legacy.mwm"), Size: 400},
		{Name: "Spain", Version: 220405, Path: filepath.Join(root, "220405", "Spain.mwm"), Size: 200},
	})
}

func (s *StoreSuite) TestFindAllEmpty(c *gc.C) {
	files, err := store.FindAll(nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(files, gc.HasLen, 0)
}

func (s *StoreSuite) TestFindAllManyRoots(c *gc.C) {
	root1 := c.MkDir()
	root2 := c.MkDir()
	s.writeFile(c, filepath.Join(root1, "220405", "Italy.mwm"), 100)
	s.writeFile(c, filepath.Join(root2, "220405", "Italy.mwm"), 999)
	s.writeFile(c, filepath.Join(root2, "220405", "Spain.mwm"), 200)

	files, err := store.FindAll([]string{root1, root2, filepath.Join(root1, "absent")})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(files, jc.DeepEquals, []unit.File{
		{Name: "Italy", Version: 220405, Path: filepath.Join(root1, "220405", "Italy.mwm"), Size: 100},
		{Name: "Spain", Version: 220405, Path: filepath.Join(root2, "220405", "Spain.mwm"), Size: 200},
	})
}

func (s *StoreSuite) TestParsePath(c *gc.C) {
	f, err := store.ParsePath("/maps/220405/Italy.mwm")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(f, jc.DeepEquals, unit.File{Name: "Italy", Version: 220405, Path: "/maps/220405/Italy.mwm"})

	f, err = store.ParsePath("/maps/Legacy.mwm")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(f, jc.DeepEquals, unit.File{Name: "Legacy", Version: unit.VersionUnknown, Path: "/maps/Legacy.mwm"})
}

func (s *StoreSuite) TestParsePathRejectsStrays(c *gc.C) {
	for _, path := range []string{
		"/maps/220405/Italy.txt",
		"/maps/220405/.Italy.mwm",
		"/maps/220405/Italy.mwm.downloading",
		"/maps/220405/Italy.mwm.ready",
		"/maps/220405/.mwm",
	} {
		_, err := store.ParsePath(path)
		c.Check(err, jc.ErrorIs, errors.NotValid, gc.Commentf("path %q", path))
	}
}

func (s *StoreSuite) TestRemove(c *gc.C) {
	path := filepath.Join(c.MkDir(), "Italy"+unit.Extension)
	s.writeFile(c, path, 16)
	file := unit.File{Name: "Italy", Version: 220405, Path: path}

	err := store.Remove(file, clock.WallClock, nil)
	c.Assert(err, jc.ErrorIsNil)
	_, err = os.Stat(path)
	c.Check(err, jc.Satisfies, os.IsNotExist)

	// Removing an already removed file is fine.
	err = store.Remove(file, clock.WallClock, nil)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *StoreSuite) TestRemoveValidates(c *gc.C) {
	err := store.Remove(unit.File{}, clock.WallClock, nil)
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *StoreSuite) TestRemoveCancelled(c *gc.C) {
	releaser, err := mutex.Acquire(mutex.Spec{
		Name:  "mapset-store",
		Clock: clock.WallClock,
		Delay: 10 * time.Millisecond,
	})
	c.Assert(err, jc.ErrorIsNil)
	defer releaser.Release()

	path := filepath.Join(c.MkDir(), "Italy"+unit.Extension)
	s.writeFile(c, path, 16)
	file := unit.File{Name: "Italy", Version: 220405, Path: path}

	cancel := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Remove(file, clock.WallClock, cancel)
	}()

	select {
	case err := <-done:
		c.Fatalf("remove did not wait for the store lock: %v", err)
	case <-time.After(coretesting.ShortWait):
	}
	close(cancel)

	select {
	case err := <-done:
		c.Assert(err, jc.ErrorIs, mutex.ErrCancelled)
	case <-time.After(coretesting.LongWait):
		c.Fatalf("remove did not cancel")
	}

	// The file survived the abandoned removal.
	_, err = os.Stat(path)
	c.Check(err, jc.ErrorIsNil)
}
