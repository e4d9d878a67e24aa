package main

import (
	"github.com/sidkik/artsync/cmd"
	"github.com/sidkik/artsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
