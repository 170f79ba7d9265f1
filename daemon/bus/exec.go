// Package bus implements the command runner behind the optional
// ".exec" message-bus reply handler. The NATS subscriptions themselves,
// including the ".snapshot" handler, live in the publisher package.
package bus

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxOutputBytes bounds each of the stdout and stderr fields of an
// exec reply.
const maxOutputBytes = 10000

// execTimeout is the hard ceiling on a single command, independent of
// whatever the caller asked for.
const execTimeout = 55 * time.Second

// allowedCommands is a short, read-only-oriented subset: none of the
// container/VM/array management commands the host agent carries make
// sense here, since this agent owns no such subsystems.
var allowedCommands = map[string]bool{
	"ps":       true,
	"top":      true,
	"free":     true,
	"df":       true,
	"du":       true,
	"uptime":   true,
	"uname":    true,
	"hostname": true,
	"date":     true,
	"ls":       true,
	"cat":      true,
	"head":     true,
	"tail":     true,
	"grep":     true,
	"stat":     true,
	"ss":       true,
	"sensors":  true,
	"smartctl": true,
	"dmesg":    true,
}

// ExecRequest is the payload expected on the "<prefix>.<hostname>.exec" subject.
type ExecRequest struct {
	Command string `json:"command"`
}

// ExecResponse is the reply payload.
type ExecResponse struct {
	Success  bool   `json:"success"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Error    string `json:"error,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// Exec runs an allow-listed, read-only diagnostic command and returns
// its stdout and stderr, each truncated to maxOutputBytes.
func Exec(ctx context.Context, req ExecRequest) ExecResponse {
	if err := validate(req.Command); err != nil {
		return ExecResponse{Success: false, Error: err.Error(), ExitCode: -1}
	}

	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", req.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	out, errOut := stdout.Bytes(), stderr.Bytes()
	if len(out) > maxOutputBytes {
		out = out[:maxOutputBytes]
	}
	if len(errOut) > maxOutputBytes {
		errOut = errOut[:maxOutputBytes]
	}

	resp := ExecResponse{Success: err == nil, Stdout: string(out), Stderr: string(errOut)}
	if err != nil {
		resp.Error = err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok {
			resp.ExitCode = exitErr.ExitCode()
		} else {
			resp.ExitCode = -1
		}
	}
	return resp
}

func validate(command string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return fmt.Errorf("empty command")
	}
	if !allowedCommands[parts[0]] {
		return fmt.Errorf("command %q is not allow-listed", parts[0])
	}

	for _, sep := range []string{"&&", "||", ";", "|", "&", "\n", ">", "`", "$(", ".."} {
		if strings.Contains(command, sep) {
			return fmt.Errorf("command contains disallowed sequence %q", sep)
		}
	}
	return nil
}
