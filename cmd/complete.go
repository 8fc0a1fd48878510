package cmd

import (
	"flag"

	"github.com/etnz/holdings/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors predicts flag values by flag name. Flags not listed take
// any value, boolean flags take none.
var flagPredictors = map[string]complete.Predictor{
	"env":       predict.Files("*"),
	"schema":    predict.Files("*"),
	"data-dir":  predict.Dirs("*"),
	"log-level": predict.Set{"debug", "info", "warn", "error"},
	"strategy":  predict.Set{"rotate", "overlay"},
	"format":    predict.Set{"md", "json", "csv"},
}

// Completion returns the shell completion of the ees command line, global
// flags from fs.
func Completion(fs *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(fs),
	}
	for _, c := range Commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		sub := &complete.Command{Flags: predictFlags(f)}
		if c.Name() == "topic" {
			if topics, err := docs.GetAllTopics(); err == nil {
				sub.Args = predict.Set(append(topics, "*"))
			}
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

func predictFlags(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
