package main

import (
	"os"

	"github.com/gowiki/gowiki/cmd/wikictl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
