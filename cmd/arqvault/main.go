package main

import "github.com/arqvault/arqvault/cli"

func main() {
	cli.Execute()
}
