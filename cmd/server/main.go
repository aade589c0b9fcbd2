package main

import (
	"os"

	"hrconsole/internal/app/server"
	"hrconsole/internal/platform/logging"
)

func main() {
	if err := server.Run(); err != nil {
		logging.Logger().Error().Err(err).Msg("hrconsole stopped")
		os.Exit(1)
	}
}
