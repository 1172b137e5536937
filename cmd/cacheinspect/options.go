// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package main

// Options are the command line flags of cacheinspect.
type Options struct {
	Input   string `short:"i" long:"input" description:"cache blob URL or path, - for stdin" required:"true"`
	Output  string `short:"o" long:"output" description:"write the resulting cache blob to this URL or path"`
	Repair  bool   `short:"r" long:"repair" description:"move entries to their canonical cache keys"`
	Verbose bool   `short:"v" long:"verbose" description:"print the full summary"`
	Metrics bool   `short:"m" long:"metrics" description:"print cache metrics in Prometheus text format"`
}
