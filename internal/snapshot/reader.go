// Package snapshot collects the live system state graded each cycle.
// It is the only package that touches the operating system; everything
// it reads ends up in a model.Snapshot value.
package snapshot

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// reader abstracts how source files are read: directly, or through an
// elevation prefix when the sources are root-owned.
type reader interface {
	Name() string
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)
}

// plainReader reads with the process's own credentials.
type plainReader struct{}

func (plainReader) Name() string { return "plain" }

func (plainReader) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (plainReader) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// elevatedReader runs reads through a configured command prefix,
// typically ["sudo", "-n"]. Existence checks that fail to execute fall
// back to an unprivileged stat so a broken elevation setup degrades
// instead of killing the cycle.
type elevatedReader struct {
	prefix []string
}

func (elevatedReader) Name() string { return "privileged" }

func (r elevatedReader) command(ctx context.Context, args ...string) *exec.Cmd {
	full := append(append([]string{}, r.prefix...), args...)
	return exec.CommandContext(ctx, full[0], full[1:]...)
}

func (r elevatedReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, "cat", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (r elevatedReader) FileExists(ctx context.Context, path string) (bool, error) {
	cmd := r.command(ctx, "test", "-e", path)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	// The elevated check itself could not run; degrade to a plain stat.
	return plainReader{}.FileExists(ctx, path)
}

// probe reports whether the elevation prefix can run at all.
func (r elevatedReader) probe(ctx context.Context) bool {
	if len(r.prefix) == 0 {
		return false
	}
	if _, err := exec.LookPath(r.prefix[0]); err != nil {
		return false
	}
	return r.command(ctx, "true").Run() == nil
}
