// Command ordexctl inspects and maintains order indexes from the shell.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(connectFromConfig).Execute(); err != nil {
		os.Exit(1)
	}
}
