package main

import (
	"fmt"
	"os"

	"audio2json/cmd/a2j/cmd"
	"audio2json/internal/config"
)

func main() {
	// A missing key is reported by commands that need it, not here.
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration warning: %v\n", err)
	}

	cmd.Execute()
}
