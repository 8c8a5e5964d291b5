package main

import (
	"call-transcriber/cmd/calls2csv/cmd"
)

func main() {
	cmd.Execute()
}
