package main

import (
	"os"

	"github.com/denismitr/blueprint/internal/cli"
)

func main() {
	cmd := cli.Command{Name: "blueprint", Out: os.Stdout}
	os.Exit(cmd.Run(os.Args[1:]))
}
