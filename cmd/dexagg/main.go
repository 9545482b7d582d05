package main

import "github.com/vietddude/dexagg/internal/cli"

func main() {
	cli.Execute()
}
