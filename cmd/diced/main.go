package main

import (
	"github.com/dicehouse/diced/internal/cli"
)

func main() {
	cli.Execute()
}
