package main

import "github.com/sadopc/askfin/internal/cli"

func main() {
	cli.Execute()
}
