package main

import "github.com/fairshared/fairshared/pkg/cli"

func main() {
	cli.Execute()
}
