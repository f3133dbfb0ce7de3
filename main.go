package main

import (
	"os"

	"github.com/chris-regnier/reflectctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
