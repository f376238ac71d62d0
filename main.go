package main

import (
	"os"

	"github.com/mindharmony/mindharmony/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
