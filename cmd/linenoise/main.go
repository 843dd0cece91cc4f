package main

import (
	"github.com/kcaldas/linenoise/cmd/cli"
)

func main() {
	cli.Execute()
}
