package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"screen-cue-overlay/src/detector"
	"screen-cue-overlay/src/screenshot"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
	liveSource    = "screen"
)

type cliOptions struct {
	filePath   string
	jsonOutput bool
	yamlOutput bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args), os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		args = []string{"cue-detect"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cue-detect",
		Short:         "Check an image file (or the live screen) for the color cue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Image file to check (PNG, JPEG, GIF, BMP, WebP); empty samples the live screen")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.yamlOutput, "yaml", false, "Output results as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	return cmd
}

func runWithOptions(opts cliOptions, stdout, stderr io.Writer) error {
	// Configure logging BEFORE any other operations.
	if opts.verbose {
		log.SetOutput(stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	var (
		res *detectResult
		err error
	)
	if opts.filePath == "" {
		res, err = detectLive(opts.verbose, stderr)
	} else {
		res, err = detectFile(opts.filePath, opts.verbose, stderr)
	}
	if err != nil {
		return err
	}
	return outputResult(stdout, *res, opts)
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-file":
			normalized[i] = "--file"
		case strings.HasPrefix(arg, "-file="):
			normalized[i] = "--file=" + arg[len("-file="):]
		case arg == "-json":
			normalized[i] = "--json"
		case strings.HasPrefix(arg, "-json="):
			normalized[i] = "--json=" + arg[len("-json="):]
		case arg == "-yaml":
			normalized[i] = "--yaml"
		case arg == "-verbose":
			normalized[i] = "--verbose"
		case strings.HasPrefix(arg, "-verbose="):
			normalized[i] = "--verbose=" + arg[len("-verbose="):]
		}
	}

	return normalized
}

type regionJSON struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type detectResult struct {
	Source    string     `json:"source" yaml:"source"`
	Matched   bool       `json:"matched" yaml:"matched"`
	Pixels    int        `json:"pixels" yaml:"pixels"`
	Threshold int        `json:"threshold" yaml:"threshold"`
	Region    regionJSON `json:"region" yaml:"region"`
}

func newResult(source string, d *detector.Detector, matched bool, region image.Rectangle) *detectResult {
	return &detectResult{
		Source:    source,
		Matched:   matched,
		Pixels:    d.LastCount(),
		Threshold: d.Threshold().MinPixels,
		Region:    regionJSON{X: region.Min.X, Y: region.Min.Y, Width: region.Dx(), Height: region.Dy()},
	}
}

func detectFile(path string, verbose bool, stderr io.Writer) (*detectResult, error) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxFileSize {
		return nil, &screenshot.ImageLoadError{Path: path, Err: fmt.Errorf("file exceeds maximum size of %d MB", maxFileSizeMB)}
	}
	if verbose {
		fmt.Fprintf(stderr, "[verbose] Reading image from file: %s\n", path)
	}

	img, err := screenshot.LoadImage(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		b := img.Bounds()
		fmt.Fprintf(stderr, "[verbose] Decoded %dx%d image\n", b.Dx(), b.Dy())
	}

	d := detector.New(nil, nil)
	matched := d.SampleImage(img)
	return newResult(path, d, matched, img.Bounds()), nil
}

func detectLive(verbose bool, stderr io.Writer) (*detectResult, error) {
	screen := screenshot.Screen{}
	bounds, err := screen.Bounds()
	if err != nil {
		return nil, err
	}
	region := detector.Region(bounds)
	if verbose {
		fmt.Fprintf(stderr, "[verbose] Sampling region %v of display %v\n", region, bounds)
	}

	d := detector.New(screen, nil)
	matched, err := d.Sample()
	if err != nil {
		return nil, err
	}
	return newResult(liveSource, d, matched, region), nil
}

func outputResult(w io.Writer, res detectResult, opts cliOptions) error {
	switch {
	case opts.jsonOutput:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	case opts.yamlOutput:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		return encoder.Close()
	}

	// Styles degrade to plain text when w is not a terminal.
	r := lipgloss.NewRenderer(w)
	verdict := r.NewStyle().Faint(true).Render("no match")
	if res.Matched {
		verdict = r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Render("match")
	}
	_, err := fmt.Fprintf(w, "%s: %s (%d pixels, threshold %d)\n", res.Source, verdict, res.Pixels, res.Threshold)
	return err
}
