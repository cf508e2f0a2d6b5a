package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"pesaprime/internal/seed"
)

type seedCmd struct {
	name     string
	email    string
	phone    string
	password string
	deposit  string
	plain    bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the demo account with a funded wallet and open positions" }
func (*seedCmd) Usage() string {
	return `pesactl seed [-email <email>] [-phone <phone>] [-password <password>] [-deposit <amount>]

  Registers the demo user, deposits funds and buys Bitcoin, Ethereum and
  Apple through the regular services. An existing account is left as is.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	demo := seed.DemoOptions()
	f.StringVar(&c.name, "name", demo.Name, "display name")
	f.StringVar(&c.email, "email", demo.Email, "login email")
	f.StringVar(&c.phone, "phone", demo.Phone, "phone number in E.164 form")
	f.StringVar(&c.password, "password", demo.Password, "login password")
	f.StringVar(&c.deposit, "deposit", demo.Deposit.String(), "amount to deposit before buying")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown")
}

func (c *seedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	deposit, err := decimal.NewFromString(c.deposit)
	if err != nil || deposit.IsNegative() {
		fmt.Fprintf(os.Stderr, "Error: invalid deposit %q\n", c.deposit)
		return subcommands.ExitUsageError
	}

	a, err := openApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	opts := seed.DemoOptions()
	opts.Name, opts.Email, opts.Phone, opts.Password = c.name, c.email, c.phone, c.password
	opts.Deposit = deposit

	res, err := seed.Run(ctx, a.bundle, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(os.Stdout, portfolioMarkdown(res.User, res.Balance, res.Investments, nil), c.plain)
	return subcommands.ExitSuccess
}
