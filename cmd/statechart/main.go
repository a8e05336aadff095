// Command statechart runs a YAML statechart definition against events read
// from standard input.
//
// Each input line is one trigger event; "." sends the completion event,
// empty lines and lines starting with '#' are skipped. After every event the
// command prints the number of executed transitions and the active
// configuration:
//
//	$ printf 'coin\npush\n' | statechart -def turnstile.yaml
//	started Locked
//	steps 1 Unlocked
//	steps 1 Locked
//
// With a store configured the machine is checkpointed after every event and
// resumed from its checkpoint on the next run with the same -id.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "statechart:", err)
		os.Exit(1)
	}
}
