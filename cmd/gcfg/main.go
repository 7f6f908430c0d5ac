// Package main implements the gcfg CLI. It builds control flow graphs of Go
// functions and prints them as text, JSON or Graphviz dot.
package main

import (
	"os"

	"github.com/l3aro/go-cfg-builder/cmd/gcfg/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (built " + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`gcfg version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
