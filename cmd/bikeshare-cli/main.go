// Command bikeshare-cli computes bike-sharing dashboard views from the day
// and hour tables and serves them over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
