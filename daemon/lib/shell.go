// Package lib holds small process-wide helpers shared across
// components that need to run an external command and consume its
// output line by line.
package lib

import (
	"bufio"
	"os/exec"

	"github.com/ecmoce/sysops-agent/daemon/logger"
)

// Callback is invoked once per line of a command's stdout.
type Callback func(line string)

// SafeShell runs command through /bin/sh -c, invoking callback for
// each line of stdout. Failures are logged rather than fatal: a
// non-zero exit or a broken pipe must never bring down a long-running
// daemon over a single collection or scan cycle.
func SafeShell(command string, callback Callback) {
	SafeShellEx("/bin/sh", callback, "-c", command)
}

// SafeShellEx runs name with the given arguments, invoking callback
// for each line of stdout. Failures are logged rather than fatal.
func SafeShellEx(name string, callback Callback, arg ...string) {
	cmd := exec.Command(name, arg...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		logger.Component("lib.shell").Warn().Err(err).Str("command", name).Msg("failed to open stdout pipe")
		return
	}

	scanner := bufio.NewScanner(out)

	if err := cmd.Start(); err != nil {
		logger.Component("lib.shell").Warn().Err(err).Str("command", name).Msg("failed to start command")
		return
	}

	for scanner.Scan() {
		callback(scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		logger.Component("lib.shell").Warn().Err(err).Str("command", name).Msg("command exited with error")
	}
}
