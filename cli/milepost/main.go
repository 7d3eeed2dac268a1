package main

import (
	"os"

	milepostcmder "github.com/roadworksco/milepost/cmd/milepost"
)

func main() {
	cmd := milepostcmder.NewMilepostCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
