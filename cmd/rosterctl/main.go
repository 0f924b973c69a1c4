package main

import (
	"os"

	"rostering_backend/pkg/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		utils.LogError(err, "rosterctl failed")
		os.Exit(1)
	}
}
