package main

import (
	"os"

	"github.com/oficiosya/dispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
