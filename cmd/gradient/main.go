package main

import (
	"os"

	"github.com/anime-shed/gradient-fade/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
