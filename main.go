package main

import (
	"os"

	"github.com/larsks/part/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
