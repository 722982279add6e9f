package main

import (
	"fmt"
	"os"

	"askip/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "askip:", err)
		os.Exit(1)
	}
}
