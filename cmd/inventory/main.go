package main

import (
	"os"

	"github.com/denismitr/blueprint"
	"github.com/denismitr/blueprint/internal/cli"
	"github.com/denismitr/blueprint/inventory"
)

// inventory applies the inventory schema defined in Go code
func main() {
	cmd := cli.Command{
		Name:   "inventory",
		Source: blueprint.UseInMemorySource(inventory.Migrations()...),
		Out:    os.Stdout,
	}

	os.Exit(cmd.Run(os.Args[1:]))
}
