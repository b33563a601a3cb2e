package main

import "gridlock/internal/cli"

func main() {
	cli.Execute()
}
