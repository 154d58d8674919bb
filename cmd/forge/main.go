package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"google.golang.org/api/option"

	"gcp-project-forge/internal/authflow"
	"gcp-project-forge/internal/batch"
	"gcp-project-forge/internal/config"
	"gcp-project-forge/internal/diag"
	"gcp-project-forge/internal/naming"
	"gcp-project-forge/internal/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("forge %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()

	// Diagnostics go to the console and a log file.
	logW := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logW = io.MultiWriter(os.Stderr, f)
	}
	sink := diag.NewLogSink(logW)

	in := bufio.NewScanner(os.Stdin)
	params := batch.Params{
		StartNumber:      cfg.StartNumber,
		Count:            cfg.Count,
		BillingAccountID: cfg.BillingAccount,
	}
	interactive := params.StartNumber == 0 || params.Count == 0
	if params.StartNumber == 0 {
		params.StartNumber = promptNumber(in, "Enter the initial number to start project numbering from (e.g., 1): ")
	}
	if params.Count == 0 {
		params.Count = promptNumber(in, "Enter the number of projects to create: ")
	}
	if interactive && params.BillingAccountID == "" {
		params.BillingAccountID = promptLine(in, "Enter your Billing Account ID (optional, leave blank to use default): ")
	}
	if err := params.Validate(); err != nil {
		sink.Logger.Fatal("invalid batch parameters", "err", err)
	}

	ctx := context.Background()

	tokenSource, err := authflow.TokenSource(ctx, cfg.CredentialsFile, platform.CloudPlatformScope)
	if err != nil {
		sink.Logger.Fatal("authorization failed", "err", err)
	}

	client, err := platform.NewResourceManager(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		sink.Logger.Fatal("building resource manager client", "err", err)
	}

	billing := params.BillingAccountID
	if billing == "" {
		billing = "(default)"
	}
	sink.Logger.Info("forge configuration",
		"start_number", params.StartNumber,
		"count", params.Count,
		"billing_account", billing,
		"credentials", cfg.CredentialsFile,
		"poll_interval", cfg.PollInterval,
	)

	runner := &batch.Runner{
		Creator: &platform.Creator{
			Client:       client,
			Sink:         sink,
			PollInterval: cfg.PollInterval,
			MaxWait:      cfg.MaxWait,
		},
		Names: naming.Generator{Sink: sink},
		Sink:  sink,
	}

	res, err := runner.Run(ctx, params)
	if err != nil {
		sink.Logger.Fatal("batch aborted", "err", err)
	}
	if len(res.Created()) == 0 {
		os.Exit(1)
	}
}

// promptNumber reads an integer in the accepted range, re-prompting on bad
// input.
func promptNumber(in *bufio.Scanner, label string) int {
	for {
		fmt.Print(label)
		if !in.Scan() {
			fmt.Fprintln(os.Stderr, "No input available.")
			os.Exit(1)
		}
		n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil {
			fmt.Println("Invalid input. Please enter an integer.")
			continue
		}
		if n < batch.MinNumber || n > batch.MaxNumber {
			fmt.Printf("Please enter a number between %d and %d.\n", batch.MinNumber, batch.MaxNumber)
			continue
		}
		return n
	}
}

func promptLine(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}
