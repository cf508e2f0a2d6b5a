package main

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

type boolFlag interface {
	IsBoolFlag() bool
}

// completion derives the shell completion tree from the registered
// subcommands' own flag sets, so new flags complete without extra wiring.
// Install with COMP_INSTALL=1 pesactl.
func completion() *complete.Command {
	root := &complete.Command{Sub: map[string]*complete.Command{}}
	names := make(predict.Set, 0, len(commands))

	for _, c := range commands {
		fs := flag.NewFlagSet(c.cmd.Name(), flag.ContinueOnError)
		c.cmd.SetFlags(fs)

		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			if b, ok := f.Value.(boolFlag); ok && b.IsBoolFlag() {
				sub.Flags[f.Name] = predict.Nothing
				return
			}
			sub.Flags[f.Name] = predict.Something
		})
		root.Sub[c.cmd.Name()] = sub
		names = append(names, c.cmd.Name())
	}

	root.Sub["help"] = &complete.Command{Args: names}
	root.Sub["flags"] = &complete.Command{}
	root.Sub["commands"] = &complete.Command{}
	return root
}
