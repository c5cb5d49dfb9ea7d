package main

import "coindash/internal/cli"

func main() {
	cli.Execute()
}
