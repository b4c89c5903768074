package remover

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// waitDelay bounds how long a cancelled tool may keep its pipes open
const waitDelay = 2 * time.Second

// Command runs an external removal tool, feeding the image on stdin and
// reading the result from stdout. The default configuration drives the
// rembg CLI as "rembg i - -".
type Command struct {
	path   string
	args   []string
	logger *logrus.Logger
}

func NewCommand(path string, args []string, logger *logrus.Logger) *Command {
	return &Command{
		path:   path,
		args:   append([]string(nil), args...),
		logger: logger,
	}
}

func (c *Command) Name() string {
	return "command:" + c.path
}

func (c *Command) Remove(ctx context.Context, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", c.path, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", c.path, err)
	}

	if stdout.Len() == 0 {
		return nil, ErrEmptyOutput
	}

	c.logger.WithFields(logrus.Fields{
		"command":   c.path,
		"in_bytes":  len(input),
		"out_bytes": stdout.Len(),
		"duration":  time.Since(start),
	}).Debug("External remover finished")

	return stdout.Bytes(), nil
}
