package main

import "github.com/scorebox-project/scorebox/internal/cli"

func main() {
	cli.Execute()
}
