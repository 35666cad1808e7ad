package main

import "github.com/okian/formfill/internal/cli"

func main() {
	cli.Execute()
}
