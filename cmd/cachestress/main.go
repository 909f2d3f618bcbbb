// File: cmd/cachestress/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// cachestress hammers the box and buffer caches from many goroutines and
// fails if a buffer is ever issued twice or a boxed value mismatches.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	log.SetHandler(cli.New(os.Stderr))
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
