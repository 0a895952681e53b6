// Package main provides the flightmix field CLI for editing and persisting
// the control-surface mixer.
package main

import (
	"os"

	"github.com/edaniels/golog"

	"github.com/tailless/flightmix/cli"
)

var logger = golog.NewDevelopmentLogger("flightmix")

func main() {
	if err := cli.NewApp().Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
