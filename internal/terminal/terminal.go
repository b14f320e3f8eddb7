package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrCommandTimeout  = errors.New("command timed out")
	ErrCommandFailed   = errors.New("command failed")
)

type Command struct {
	Command string
	Args    []string
	Dir     string
	Stdin   string
	Timeout time.Duration
}

func NewCommand(command string, args ...string) *Command {
	return &Command{
		Command: command,
		Args:    args,
		Timeout: DefaultTimeout,
	}
}

func (c *Command) WithStdin(stdin string) *Command {
	c.Stdin = stdin
	return c
}

func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > 0 {
		c.Timeout = timeout
	}

	return c
}

// Execute runs the command and returns its trimmed stdout. The command is killed once
// Timeout elapses or ctx is done, whichever comes first.
func (c *Command) Execute(ctx context.Context) (string, error) {
	timeout := c.Timeout

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)

	if c.Dir != "" {
		cmd.Dir = c.Dir
	}

	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrCommandNotFound, c.Command)
		}

		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s after %v", ErrCommandTimeout, c.String(), timeout)
		}

		return "", fmt.Errorf("%w: %s: %v\nStderr: %s", ErrCommandFailed, c.String(), err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (c *Command) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}
