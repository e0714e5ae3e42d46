package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Opener opens URLs and applications on the user's desktop.
type Opener interface {
	OpenURL(ctx context.Context, rawURL string) error
	OpenApplication(ctx context.Context, name string) error
}

// ExecOpener opens things with the platform's launcher command.
type ExecOpener struct {
	goos string
}

// NewExecOpener returns an opener for the running platform.
func NewExecOpener() *ExecOpener {
	return &ExecOpener{goos: runtime.GOOS}
}

// OpenURL implements Opener.
func (o *ExecOpener) OpenURL(ctx context.Context, rawURL string) error {
	switch o.goos {
	case "darwin":
		return run(ctx, "open", rawURL)
	case "windows":
		return run(ctx, "rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return run(ctx, "xdg-open", rawURL)
	}
}

// OpenApplication implements Opener.
func (o *ExecOpener) OpenApplication(ctx context.Context, name string) error {
	switch o.goos {
	case "darwin":
		return run(ctx, "open", "-a", name)
	case "windows":
		return run(ctx, "cmd", "/c", "start", "", name)
	default:
		bin, err := exec.LookPath(strings.ToLower(strings.ReplaceAll(name, " ", "-")))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrAppNotFound, name)
		}
		cmd := exec.Command(bin)
		if err := cmd.Start(); err != nil {
			return err
		}
		// reap the child when it exits
		go func() { _ = cmd.Wait() }()
		return nil
	}
}

func run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %s", name, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
