package main

import (
	"os"

	"usbip-report/cmd/usbip-report/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
