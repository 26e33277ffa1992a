// Copyright 2026 The CorrodeTest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corrodetest // import "modernc.org/corrodetest/lib"

import (
	"bytes"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func env(name, deflt string) (r string) {
	r = deflt
	if s := os.Getenv(name); s != "" {
		r = s
	}
	return r
}

// execResult captures everything the oracle needs to know about one run of
// an external process.
type execResult struct {
	stdout []byte
	stderr []byte
	status int

	timedOut bool
}

// combined approximates CombinedOutput for failed tool runs. Interleaving
// is lost, stdout comes first.
func (r *execResult) combined() string {
	return string(r.stdout) + string(r.stderr)
}

// runTimeout runs bin with args and kills its whole process group when the
// deadline passes. Timeouts are enforced here, by the caller; the child is
// never trusted to cooperate. The returned error reports environment
// faults only (binary missing, fork failure); a nonzero exit or a kill on
// timeout is reported in the result.
func runTimeout(timeout time.Duration, bin string, args ...string) (r execResult, err error) {
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err = cmd.Start(); err != nil {
		return r, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err = <-done:
	case <-time.After(timeout):
		unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		<-done
		r.timedOut = true
		err = nil
	}
	r.stdout = stdout.Bytes()
	r.stderr = stderr.Bytes()
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			return r, err
		}

		r.status = ee.ExitCode()
		err = nil
	}
	return r, nil
}
