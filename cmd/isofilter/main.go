package main

import (
	"context"
	"flag"
	"os"

	"github.com/plan-systems/klog"
)

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	err := newRootCmd(fset).ExecuteContext(context.Background())
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
