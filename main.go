package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gallerydiff/logging"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	logging.CloseLogger()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
