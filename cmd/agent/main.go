// Command agent runs goal-driven agents from configuration files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dokkiitech/LinkDeck-sub000/interfaces/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
