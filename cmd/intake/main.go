package main

import "github.com/gruntek/audit-intake/internal/cli"

func main() {
	cli.Execute()
}
