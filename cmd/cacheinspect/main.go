// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Command cacheinspect reads an MSAL token cache blob, reports what it holds and can
// rewrite it with entries moved to their canonical keys.
//
// Logging is configured with the MSAL_CACHE_* environment variables and goes to stderr.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
