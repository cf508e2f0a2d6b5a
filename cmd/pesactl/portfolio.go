package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"pesaprime/internal/amount"
	"pesaprime/internal/models"
	"pesaprime/internal/services"
)

type portfolioCmd struct {
	email    string
	password string
	live     bool
	plain    bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display a user's wallet, positions and recent activity" }
func (*portfolioCmd) Usage() string {
	return `pesactl portfolio -email <email> -password <password> [-live] [-plain]

  Revalues the user's active investments and prints the wallet summary.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "login email")
	f.StringVar(&c.password, "password", "", "login password")
	f.BoolVar(&c.live, "live", false, "revalue with live prices")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email and -password are required")
		return subcommands.ExitUsageError
	}

	a, err := openApp(c.live)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	user, err := a.bundle.Users.Authenticate(ctx, c.email, c.password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	balance, err := a.bundle.Wallets.GetBalance(ctx, user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	investments, err := a.bundle.Investments.ListActive(ctx, user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	activities, err := a.bundle.Activities.ListRecent(ctx, user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(os.Stdout, portfolioMarkdown(user, balance, investments, activities), c.plain)
	return subcommands.ExitSuccess
}

// portfolioMarkdown renders a wallet summary. The activity section is
// omitted when activities is nil.
func portfolioMarkdown(user *models.User, balance *services.Balance, investments []models.Investment, activities []models.Activity) string {
	cur := balance.Currency
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n%s · %s\n\n", user.Name, user.Email, user.PhoneNumber)
	fmt.Fprintf(&sb, "- **Balance:** %s\n- **Equity:** %s\n", amount.Format(balance.Balance, cur), amount.Format(balance.Equity, cur))

	sb.WriteString("\n## Active investments\n\n")
	if len(investments) == 0 {
		sb.WriteString("_None._\n")
	} else {
		sb.WriteString("| Asset | Invested | Value | P/L | Matures |\n")
		sb.WriteString("|---|---:|---:|---:|---|\n")
		for _, inv := range investments {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s (%s%%) | %s |\n",
				inv.AssetName,
				amount.Format(inv.InvestedAmount, cur),
				amount.Format(inv.CurrentValue, cur),
				amount.Format(inv.ProfitLoss, cur),
				signed(inv.ProfitLossPercentage.StringFixed(2)),
				inv.CompletionTime.UTC().Format("2006-01-02 15:04"),
			)
		}
	}

	if activities != nil {
		sb.WriteString("\n## Recent activity\n\n")
		if len(activities) == 0 {
			sb.WriteString("_None._\n")
		}
		for _, a := range activities {
			fmt.Fprintf(&sb, "- %s %s\n", a.Timestamp.UTC().Format("2006-01-02 15:04"), a.Description)
		}
	}
	return sb.String()
}
