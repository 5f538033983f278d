package main

import (
	"fmt"
	"os"

	"github.com/spec-kit/helpdesk-service/cmd/helpdeskctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
