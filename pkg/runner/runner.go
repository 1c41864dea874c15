// Package runner holds the small amount of process plumbing shared by the
// example binaries: a startup banner and signal-aware execution.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
)

const Version = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"BODHI\" \"\" 0 }}\nVersion: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

// Run executes fn under a context that is cancelled on SIGINT or SIGTERM, so
// an in-flight transcription unwinds cleanly instead of dying mid-session.
func Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}
