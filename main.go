package main

import (
	"os"

	"github.com/mwkelly/redraft/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
