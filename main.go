// main is the entry point for the motionwin CLI.
package main

import (
	"github.com/huangsam/motionwin/cmd"
	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/persist"
)

func main() {
	err := cmd.Execute()
	if ferr := cmd.Finish(); ferr != nil {
		contract.LogWarn("Failed to finish", ferr)
	}
	if cerr := persist.CloseStore(); cerr != nil {
		contract.LogWarn("Failed to close store", cerr)
	}
	if err != nil {
		contract.LogFatal("motionwin failed", err)
	}
}
