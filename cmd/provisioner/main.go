package main

import (
	"os"

	"github.com/novavault/wallet-provisioner/cmd/provisioner/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
