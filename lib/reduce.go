// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corrodetest // import "modernc.org/corrodetest/lib"

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kballard/go-shellquote"
)

var (
	reduceCName   = filepath.FromSlash("reduce.c")
	reduceErrName = filepath.FromSlash("reduce.err")
	reduceShName  = filepath.FromSlash("reduce.sh")
)

// reduce drives creduce over the preprocessed reproducer. The persisted
// message and the launcher script are the whole protocol between this
// process and every re-entrant oracle check creduce spawns: the candidate
// path in the launcher stays relative because creduce copies the file into
// fresh working directories, the message path is absolute. The minimized
// reproducer is whatever creduce leaves in reduce.c.
func (t *Task) reduce(div *divergence) error {
	if err := t.preprocess(mainName, reduceCName); err != nil {
		return err
	}

	if err := os.WriteFile(reduceErrName, []byte(div.String()), 0660); err != nil {
		return err
	}

	errPath, err := filepath.Abs(reduceErrName)
	if err != nil {
		return err
	}

	self, err := os.Executable()
	if err != nil {
		return err
	}

	argv := append([]string{self}, t.args[1:]...)
	argv = append(argv, "-oracle", reduceCName+","+errPath)
	script := fmt.Sprintf("#!/bin/sh\nexec %s\n", shellquote.Join(argv...))
	if err := os.WriteFile(reduceShName, []byte(script), 0744); err != nil {
		return err
	}

	launcher, err := filepath.Abs(reduceShName)
	if err != nil {
		return err
	}

	// creduce manages its own iteration budget; no timeout tier applies.
	cmd := exec.Command(t.creduce, launcher, reduceCName)
	cmd.Stdout = t.stderr
	cmd.Stderr = t.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %v", t.creduce, err)
	}

	return nil
}
