package main

import (
	"context"
	"fmt"
	"io"
	"satchmo-store/internal/app"
	"strings"

	"github.com/juju/gnuflag"
)

// Info describes a maintenance command.
type Info struct {
	Name    string
	Purpose string
	Doc     string
}

// Command is one satchmo maintenance command. Flags are bound in SetFlags
// before Run is called with the assembled store.
type Command interface {
	Info() *Info
	SetFlags(f *gnuflag.FlagSet)
	Run(ctx context.Context, a *app.App, stdout io.Writer) error
}

var commands = []Command{
	&rebuildPricingCommand{},
	&billRecurringCommand{},
	&checkCommand{},
}

func findCommand(name string) Command {
	for _, c := range commands {
		if c.Info().Name == name {
			return c
		}
	}
	return nil
}

// parse binds args onto c's flags. Options and positional arguments may be
// interspersed.
func parse(c Command, args []string, stderr io.Writer) error {
	f := gnuflag.NewFlagSet(c.Info().Name, gnuflag.ContinueOnError)
	f.SetOutput(stderr)
	f.Usage = func() { printCommandUsage(c, f, stderr) }
	c.SetFlags(f)
	if err := f.Parse(true, args); err != nil {
		return err
	}
	if extra := f.Args(); len(extra) > 0 {
		return fmt.Errorf("unrecognized args: %q", extra)
	}
	return nil
}

func printCommandUsage(c Command, f *gnuflag.FlagSet, w io.Writer) {
	i := c.Info()
	fmt.Fprintf(w, "usage: satchmo %s [options]\n", i.Name)
	fmt.Fprintf(w, "purpose: %s\n", i.Purpose)
	fmt.Fprintf(w, "\noptions:\n")
	f.PrintDefaults()
	if i.Doc != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(i.Doc))
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: satchmo <command> [options]")
	fmt.Fprintln(w, "\ncommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "    %-16s %s\n", c.Info().Name, c.Info().Purpose)
	}
}
