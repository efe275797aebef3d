package main

import (
	"github.com/lmarchal/doctoveille/cmd"
)

func main() {
	cmd.Execute()
}
