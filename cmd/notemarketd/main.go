package main

import "github.com/notemarket/notemarket/internal/cli"

func main() {
	cli.Execute()
}
