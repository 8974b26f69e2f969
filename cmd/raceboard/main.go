package main

import "github.com/mcoot/raceboard/internal/cli"

func main() {
	cli.Execute()
}
