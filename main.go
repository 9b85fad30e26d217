package main

import (
	"os"

	"erpsheets/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
