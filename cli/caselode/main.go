package main

import (
	"os"

	caselodecmder "github.com/caselode/caselode/cmd/caselode"
)

func main() {
	cmd := caselodecmder.NewCaselodeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
