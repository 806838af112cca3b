// Command spin reads, queries and converts structured documents.
//
// Usage:
//
//	spin formats
//	spin get FILE --pointer /a/0
//	spin query FILE EXPR
//	spin convert FILE --to yaml
//	spin watch FILE EXPR
package main

import (
	"context"
	"os"

	"github.com/summit58/camunda-spin/internal/cmd"
)

var version = "dev"

func main() {
	if err := cmd.NewRoot(version).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
