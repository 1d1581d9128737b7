package main

import (
	"os"

	"github.com/selimcan/tagsense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
