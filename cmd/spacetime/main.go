package main

import "github.com/mcoot/spacetime-relay/internal/cli"

func main() {
	cli.Execute()
}
