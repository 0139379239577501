package main

import "buchhaltung/internal/cli"

func main() {
	cli.Execute()
}
