package main

import "depresolve/internal/cli"

func main() {
	cli.Execute()
}
