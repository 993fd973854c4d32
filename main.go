package main

import (
	"log"
	"os"

	"github.com/vrsandeep/contentsync-go/internal/cli"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
