package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/menta2k/blurface"
	"github.com/menta2k/blurface/internal/cli"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(blurface.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
