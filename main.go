package main

import (
	"os"

	"github.com/talentsift/assessrec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
