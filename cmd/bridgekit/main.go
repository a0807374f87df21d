package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	zaplogger "github.com/madcok-co/bridgekit/contrib/logger/zap"
	"github.com/madcok-co/bridgekit/pkg/adapter"
	"github.com/madcok-co/bridgekit/pkg/config"
	"github.com/madcok-co/bridgekit/pkg/schema"
	"github.com/madcok-co/bridgekit/pkg/value"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "execute", "exec":
		cmdExecute()

	case "health":
		cmdHealth()

	case "analyze":
		cmdAnalyze()

	case "infer":
		cmdInfer()

	case "version", "-v", "--version":
		fmt.Printf("bridgekit v%s\n", version)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func buildAdapter(configFile string) *adapter.Adapter {
	cfg, err := config.NewLoader(configFile).Load()
	if err != nil {
		fatal(err)
	}

	logger, err := zaplogger.NewDriver(&zaplogger.Config{Level: "info", Format: "console"})
	if err != nil {
		fatal(err)
	}

	return adapter.New(*cfg, adapter.WithLogger(logger))
}

func cmdExecute() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: bridgekit execute <config-file> <method> [path]")
		os.Exit(1)
	}
	a := buildAdapter(os.Args[2])

	req := &adapter.Request{Method: os.Args[3]}
	if len(os.Args) > 4 {
		req.Path = os.Args[4]
	}

	resp := a.Execute(context.Background(), req)
	printJSON(resp)
	if !resp.Success {
		os.Exit(1)
	}
}

func cmdHealth() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bridgekit health <config-file>")
		os.Exit(1)
	}
	a := buildAdapter(os.Args[2])

	status := a.HealthCheck(context.Background())
	printJSON(status)
	if !status.Healthy {
		os.Exit(1)
	}
}

func cmdAnalyze() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bridgekit analyze <config-file>")
		os.Exit(1)
	}
	a := buildAdapter(os.Args[2])

	inferred, err := a.AnalyzeEndpoint(context.Background())
	if err != nil {
		fatal(err)
	}
	printJSON(inferred)
}

func cmdInfer() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bridgekit infer <sample-file.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[2])
	if err != nil {
		fatal(err)
	}

	sample, err := value.ParseJSON(data)
	if err != nil {
		fatal(fmt.Errorf("parse sample: %w", err))
	}

	inferred := schema.Infer(sample)
	printJSON(inferred)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`bridgekit - resilient legacy-format adapter

Usage:
  bridgekit execute <config-file> <method> [path]   Run one request through the adapter
  bridgekit health <config-file>                    Probe the configured endpoint
  bridgekit analyze <config-file>                   Infer the remote data's schema
  bridgekit infer <sample-file.json>                Infer a schema from local sample data
  bridgekit version                                 Print version
  bridgekit help                                    Show this help`)
}
