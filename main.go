package main

import (
	"os"

	"photoflow/internal/cli"
	"photoflow/internal/transform"
)

func main() {
	defer transform.ShutdownVips(nil)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
