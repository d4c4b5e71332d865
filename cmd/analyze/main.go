// Command analyze runs one analysis from the terminal and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/audit"
	"github.com/vaibhav1874/TrueVail/internal/config"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/services"
	"github.com/vaibhav1874/TrueVail/internal/utils"
)

// serviceFactory builds the analysis service from loaded configuration
type serviceFactory func(cfg *config.Config) services.AnalysisServiceInterface

func defaultFactory(cfg *config.Config) services.AnalysisServiceInterface {
	return services.NewAnalysisServiceFromConfig(cfg, nil, audit.NopRecorder{})
}

func newRootCmd(factory serviceFactory, out io.Writer) *cobra.Command {
	var (
		mode     string
		filePath string
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [text or url]",
		Short: "Classify news, privacy exposure or deepfake media",
		Long: `Analyze runs one request through the same pipeline the HTTP server uses.

Examples:
  # Check a headline
  analyze "Scientists confirm chocolate cures all diseases"

  # Fetch an article and check it
  analyze https://www.reuters.com/world/some-story

  # Rate personal data exposure
  analyze -m privacy "Call me at 555-123-4567, SSN 123-45-6789"

  # Inspect an image
  analyze -m deepfake -f suspicious.jpg
`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(mode, strings.Join(args, " "), filePath)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.SetLevel(cfg.LogLevel)

			ctx := logger.ContextWithCorrelationID(cmd.Context(), uuid.New().String())
			result := factory(cfg).Analyze(ctx, req)
			return writeResult(out, result, !compact)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(analysis.ModeNews), "Analysis mode: news, privacy or deepfake")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Image or video to attach")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print the result on one line")

	return cmd
}

func buildRequest(rawMode, input, filePath string) (analysis.Request, error) {
	mode, err := analysis.ParseMode(rawMode)
	if err != nil {
		return analysis.Request{}, err
	}
	req := analysis.Request{RawInput: strings.TrimSpace(input), Mode: mode}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return analysis.Request{}, fmt.Errorf("failed to read media file: %w", err)
		}
		name := filepath.Base(filePath)
		req.Media = &analysis.MediaPayload{
			Data:     data,
			MimeType: utils.DetectMimeType(data, name),
			Filename: name,
		}
		if req.RawInput == "" && mode == analysis.ModeDeepfake {
			req.RawInput = name
		}
	}

	if err := req.Validate(); err != nil {
		return analysis.Request{}, err
	}
	return req, nil
}

func writeResult(out io.Writer, result analysis.Result, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func main() {
	cmd := newRootCmd(defaultFactory, os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
