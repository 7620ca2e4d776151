package main

import (
	"os"

	"github.com/bogdanteleaga/hear-eval-kit/cmd/heareval/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
