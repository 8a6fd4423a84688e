package main

import (
	"os"

	"github.com/weiawesome/asg-rev/cmd"
	pkglog "github.com/weiawesome/asg-rev/pkg/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
