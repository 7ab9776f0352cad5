// Package main is the entry point for the shaketool CLI
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/shaketool/pkg/api"
	"github.com/james-see/shaketool/pkg/converter"
	"github.com/james-see/shaketool/pkg/converter/formats"
	"github.com/james-see/shaketool/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	overwrite  bool
	outputFile string
	showFormat string
	serverCfg  = api.DefaultConfig()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shaketool",
	Short: "Convert ShakeTracker 0.2 songs to 0.4 modules",
	Long: `shaketool converts songs saved by ShakeTracker 0.2 into the chunked
module format read by ShakeTracker 0.4, and can display 0.4 modules.

Examples:
  shaketool convert old.sng new.sng
  shaketool convert old.sng new.sng --overwrite
  shaketool show new.sng --format yaml
  shaketool midi old.sng -o old.mid
  shaketool tui
  shaketool serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a ShakeTracker 0.2 song to 0.4 format",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

var showCmd = &cobra.Command{
	Use:   "show <input>",
	Short: "Read a ShakeTracker 0.4 module and display its contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var midiCmd = &cobra.Command{
	Use:   "midi <input>",
	Short: "Render a ShakeTracker 0.2 song as a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDI,
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Print the byte-text codes of notable pattern values",
	Args:  cobra.NoArgs,
	Run:   runCodes,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	convertCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite output file if it already exists")

	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "Output format (text, yaml, json)")

	midiCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	midiCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite output file if it already exists")

	serveCmd.Flags().IntVarP(&serverCfg.Port, "port", "p", serverCfg.Port, "Server port")
	serveCmd.Flags().Int64Var(&serverCfg.MaxUpload, "max-upload", serverCfg.MaxUpload, "Largest accepted upload in bytes")
	serveCmd.Flags().IntVar(&serverCfg.MaxCells, "max-cells", serverCfg.MaxCells, "Largest pattern grid an uploaded song may declare, 0 for no limit")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newConverter() *converter.Converter {
	return converter.New(formats.NewSHT2(), formats.NewSHT4())
}

// requireFormat sniffs the start of path and fails unless it holds want.
func requireFormat(path string, want converter.Format) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 32)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if got := converter.DetectFormat(head[:n]); got != want {
		return fmt.Errorf("%s: expected a %s file, got %s", path, want, got)
	}
	return nil
}

func refusal(path string) error {
	return fmt.Errorf("%s already exists; refusing to overwrite. Pass --overwrite if you want to do it anyway", path)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	if err := requireFormat(input, converter.FormatV2); err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s\n", input, output)
	err := newConverter().ConvertFile(input, output, overwrite)
	if errors.Is(err, converter.ErrOutputExists) {
		return refusal(output)
	}
	if err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	input := args[0]
	if err := requireFormat(input, converter.FormatV4); err != nil {
		return err
	}

	c, err := newConverter().InspectFile(input)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), c, showFormat)
}

func runMIDI(cmd *cobra.Command, args []string) error {
	input := args[0]
	if err := requireFormat(input, converter.FormatV2); err != nil {
		return err
	}

	output := outputFile
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".mid"
	}

	err := newConverter().ExportMIDIFile(input, output, overwrite)
	if errors.Is(err, converter.ErrOutputExists) {
		return refusal(output)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runCodes(cmd *cobra.Command, args []string) {
	printCodes(cmd.OutOrStdout())
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting shaketool API server on port %d...\n", serverCfg.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverCfg.Port)
	return api.StartServer(serverCfg)
}
