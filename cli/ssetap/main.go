package main

import (
	"os"

	ssetapcmder "github.com/papercomputeco/ssetap/cmd/ssetap"
)

func main() {
	cmd := ssetapcmder.NewSsetapCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
