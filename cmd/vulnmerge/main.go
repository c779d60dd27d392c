package main

import "vulnmerge/internal/cli"

func main() {
	cli.Execute()
}
