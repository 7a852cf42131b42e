package main

import "github.com/rezkam/pomotodo/cmd/pomoctl/cli"

func main() {
	cli.Execute()
}
