package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"satchmo-store/internal/app"

	"github.com/juju/gnuflag"
)

type rebuildPricingCommand struct{}

func (c *rebuildPricingCommand) Info() *Info {
	return &Info{
		Name:    "rebuild-pricing",
		Purpose: "rebuild the product price lookup table",
		Doc: `
Every active product gets one lookup row per price break and pricing tier.
Run it after bulk price imports; listings fall back to live pricing while
the table is empty.`,
	}
}

func (c *rebuildPricingCommand) SetFlags(*gnuflag.FlagSet) {}

func (c *rebuildPricingCommand) Run(ctx context.Context, a *app.App, stdout io.Writer) error {
	n, err := a.Pricing.RebuildLookup(ctx)
	if err != nil {
		return fmt.Errorf("rebuild price lookup: %w", err)
	}
	fmt.Fprintf(stdout, "rebuilt %d price lookup rows\n", n)
	return nil
}

type billRecurringCommand struct {
	asJSON bool
}

func (c *billRecurringCommand) Info() *Info {
	return &Info{
		Name:    "bill-recurring",
		Purpose: "charge subscriptions that are due for renewal",
		Doc: `
Subscriptions expiring today or earlier are renewed with a new order charged
against the stored payment details. Orders paid with a processor that cannot
bill again are skipped.`,
	}
}

func (c *billRecurringCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the report as JSON")
}

func (c *billRecurringCommand) Run(ctx context.Context, a *app.App, stdout io.Writer) error {
	report, err := a.Recurring.BillDue(ctx)
	if err != nil {
		return fmt.Errorf("bill recurring: %w", err)
	}

	if c.asJSON {
		return json.NewEncoder(stdout).Encode(report)
	}
	fmt.Fprintf(stdout, "due: %d billed: %d failed: %d skipped: %d\n",
		report.Due, report.Billed, report.Failed, report.Skipped)
	if report.Failed > 0 {
		return fmt.Errorf("%d renewals failed", report.Failed)
	}
	return nil
}

var errCheckFailed = errors.New("store check failed")

type checkCommand struct {
	quiet bool
}

func (c *checkCommand) Info() *Info {
	return &Info{
		Name:    "check",
		Purpose: "verify the store configuration",
	}
}

func (c *checkCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "only print failed checks")
	f.BoolVar(&c.quiet, "quiet", false, "")
}

func (c *checkCommand) Run(ctx context.Context, a *app.App, stdout io.Writer) error {
	failed := false
	for _, r := range a.Check.Run(ctx) {
		status := "OK"
		if !r.OK {
			status = "FAIL"
			failed = true
		} else if c.quiet {
			continue
		}
		fmt.Fprintf(stdout, "%-4s %-16s %s\n", status, r.Name, r.Message)
	}
	if failed {
		return errCheckFailed
	}
	return nil
}
