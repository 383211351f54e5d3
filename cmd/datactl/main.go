package main

import "github.com/mcoot/datathon/internal/cli"

func main() {
	cli.Execute()
}
