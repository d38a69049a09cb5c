package main

import (
	"flag"
	"os"
	"os/signal"

	"github.com/2x3systems/isofilter/libiso/filter"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

func newRootCmd(klogFlags *flag.FlagSet) *cobra.Command {
	var cfg *config

	cmd := &cobra.Command{
		Use:   "isofilter [file|-]",
		Short: "Writes one model per isomorphism class from a stream of Mace4 interpretations",
		Long: `isofilter reads Mace4 interpretation blocks from a file or stdin and writes each model
that is not isomorphic to a model written before it.  Models that differ only by a
relabeling of the domain are isomorphic; unassigned cells must match exactly.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cfg.load(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			stats, err := filter.RunFile(ctx, opts, cmd.OutOrStdout())
			if err != nil {
				klog.Errorf("isofilter: %v", err)
				return err
			}

			klog.V(1).Infof("%d models in %v: %d non-isomorphic, %d malformed, %d empty, %d constants only, %d unlabeled",
				stats.NumProcessed, stats.Elapsed, stats.NumAdmitted, stats.NumMalformed, stats.NumEmpty,
				stats.NumOnlyConstants, stats.NumOracleFailed)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.SortFlags = false
	fl.BoolP("emit-canon", "c", false, "write the canonical form after each model")
	fl.IntP("max-size", "m", -1, "max number of canonical keys retained (< 0 for unbounded)")
	fl.StringP("symbols", "k", "", "comma-separated function and relation symbols to compare (default all)")
	fl.BoolP("shorten", "s", false, "write verbose canonical forms on one line")
	fl.BoolP("compress", "x", false, "zstd compress and base64 armor canonical forms")
	fl.String("style", "compact", "canonical form written by -c: compact or verbose")
	fl.Bool("summary", true, "write summary lines after the last model")
	fl.String("backend", "hash", "canonical key store: hash, tree, or lsm")
	fl.String("db", "", "lsm backend only: directory persisting canonical keys across runs")
	fl.String("strategy", "canonical", "dedup strategy: canonical or linear")
	fl.String("key-style", "compact", "canonical form used as the dedup key: compact or verbose")
	fl.Int("max-leaves", 0, "max search leaves per model before it is skipped (0 for default)")
	fl.Int("max-generators", 0, "max automorphisms retained per search (0 for unbounded)")
	fl.String("config", "", "config file (yaml, json, or toml)")
	fl.AddGoFlagSet(klogFlags)

	cfg = newConfig(fl)
	return cmd
}
