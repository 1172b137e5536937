// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"
	"github.com/kylelemons/godebug/pretty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/viant/afs"

	"github.com/wedevops1/msal-cache-go/apps/cache"
)

const stdinName = "-"

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	c, err := cache.NewFromEnv(stderr, cache.WithRegisterer(reg))
	if err != nil {
		return err
	}

	fs := afs.New()
	blob, err := load(ctx, fs, options.Input, stdin)
	if err != nil {
		return err
	}
	if err := c.Unmarshal(blob); err != nil {
		return fmt.Errorf("%s: %w", options.Input, err)
	}

	repaired := 0
	if options.Repair {
		repaired = c.RepairKeys()
	}

	report(stdout, c.Summary(), repaired, options.Verbose)

	if options.Output != "" {
		out, err := c.Marshal()
		if err != nil {
			return err
		}
		if err := fs.Upload(ctx, options.Output, 0o600, bytes.NewReader(out)); err != nil {
			return fmt.Errorf("write %s: %w", options.Output, err)
		}
	}

	if options.Metrics {
		return writeMetrics(stdout, reg)
	}
	return nil
}

func load(ctx context.Context, fs afs.Service, input string, stdin io.Reader) ([]byte, error) {
	if input == stdinName {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := fs.DownloadWithURL(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	return b, nil
}

func report(w io.Writer, s cache.Summary, repaired int, verbose bool) {
	if verbose {
		fmt.Fprintln(w, pretty.Sprint(s))
	} else {
		fmt.Fprintf(w, "accounts: %d\n", s.Accounts)
		fmt.Fprintf(w, "id tokens: %d\n", s.IDTokens)
		fmt.Fprintf(w, "access tokens: %d\n", s.AccessTokens)
		fmt.Fprintf(w, "refresh tokens: %d\n", s.RefreshTokens)
		fmt.Fprintf(w, "app metadata: %d\n", s.AppMetadata)
		fmt.Fprintf(w, "unbucketed: %d\n", len(s.Unbucketed))
	}
	fmt.Fprintf(w, "repaired: %d\n", repaired)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
