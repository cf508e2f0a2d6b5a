package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"pesaprime/internal/amount"
	"pesaprime/internal/config"
	"pesaprime/internal/pricefeed"
)

type marketCmd struct {
	live  bool
	plain bool
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "display current asset quotes" }
func (*marketCmd) Usage() string {
	return `pesactl market [-live] [-plain]

  Quotes every catalog asset. Without -live (or PRICE_FEED_LIVE) all prices
  are simulated around the catalog base price.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.live, "live", false, "fetch live prices from the providers")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown")
}

func (c *marketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	quotes, err := newFeed(cfg, c.live).Quote(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, marketMarkdown(quotes, cfg.Currency, time.Now()), c.plain)
	return subcommands.ExitSuccess
}

// marketMarkdown renders quotes as a markdown table.
func marketMarkdown(quotes []pricefeed.Quote, currency string, at time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Market\n\n_Quoted %s_\n\n", at.UTC().Format("2006-01-02 15:04 MST"))
	sb.WriteString("| ID | Asset | Symbol | Price | Change | Trend | Minimum | Duration | Source |\n")
	sb.WriteString("|---:|---|---|---:|---:|---|---:|---:|---|\n")
	for _, q := range quotes {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s%% | %s | %s | %dh | %s |\n",
			q.AssetID, q.Name, q.Symbol,
			amount.Format(q.CurrentPrice, currency),
			signed(q.ChangePercentage.StringFixed(2)),
			q.Trend,
			amount.Format(q.MinInvestment, currency),
			q.Duration,
			q.Source,
		)
	}

	var fallbacks []string
	for _, q := range quotes {
		if q.FallbackReason != "" {
			fallbacks = append(fallbacks, fmt.Sprintf("- %s: %s", q.Symbol, q.FallbackReason))
		}
	}
	if len(fallbacks) > 0 {
		sb.WriteString("\n## Simulated fallbacks\n\n")
		sb.WriteString(strings.Join(fallbacks, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
