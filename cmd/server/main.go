// Package main is the entry point for the shaketool API server
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/james-see/shaketool/pkg/api"
)

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	fmt.Printf("Starting shaketool API server on port %d (uploads up to %d bytes, %d cells)...\n",
		cfg.Port, cfg.MaxUpload, cfg.MaxCells)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Port)

	if err := api.StartServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the server settings from args. Usage and errors go to
// output.
func parseFlags(args []string, output io.Writer) (api.Config, error) {
	cfg := api.DefaultConfig()

	fs := flag.NewFlagSet("shaketool-server", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Server port")
	fs.Int64Var(&cfg.MaxUpload, "max-upload", cfg.MaxUpload, "Largest accepted upload in bytes")
	fs.IntVar(&cfg.MaxCells, "max-cells", cfg.MaxCells, "Largest pattern grid an uploaded song may declare, 0 for no limit")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	switch {
	case cfg.Port < 1 || cfg.Port > 65535:
		err := fmt.Errorf("invalid port %d", cfg.Port)
		fmt.Fprintln(output, err)
		return cfg, err
	case cfg.MaxUpload < 1:
		err := fmt.Errorf("--max-upload must be positive, got %d", cfg.MaxUpload)
		fmt.Fprintln(output, err)
		return cfg, err
	case cfg.MaxCells < 0:
		err := fmt.Errorf("--max-cells must not be negative, got %d", cfg.MaxCells)
		fmt.Fprintln(output, err)
		return cfg, err
	}
	return cfg, nil
}
