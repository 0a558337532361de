package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nodewee/doc-translate-prep/pkg/batcher"
	"github.com/nodewee/doc-translate-prep/pkg/config"
	"github.com/nodewee/doc-translate-prep/pkg/core"
	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/language"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/manifest"
	"github.com/nodewee/doc-translate-prep/pkg/server"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

var (
	targetLanguage string
	ignoreHidden   bool
	showBatches    bool
	groupSize      int
	maxSize        int
	sizeMetric     string
	manifestPath   string
	jsonOutput     bool
	concurrency    int
	verbose        bool
	showVersion    bool
)

// AppHandler encapsulates application main processing logic
type AppHandler struct {
	config    *config.Config
	logger    *logger.Logger
	processor interfaces.DocumentProcessor
	languages *language.Resolver
}

// NewAppHandler creates an application handler
func NewAppHandler() *AppHandler {
	return &AppHandler{}
}

// Run extracts every document under input and prints the results
func (h *AppHandler) Run(cmd *cobra.Command, input string) error {
	if err := h.initialize(cmd); err != nil {
		return err
	}

	code, err := h.languages.Code(targetLanguage)
	if err != nil {
		return err
	}
	inputs, err := collectInputs(input, code)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		h.logger.Warn("No files found under %s", input)
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(h.config.TimeoutMinutes)*time.Minute)
	defer cancel()

	files, failures := h.processAll(ctx, inputs)

	if h.config.ManifestPath != "" && len(files) > 0 {
		runID, err := h.record(ctx, files)
		if err != nil {
			return err
		}
		h.logger.ProgressAlways("🗂️", "Recorded run %s in %s", runID, h.config.ManifestPath)
	}

	if err := h.displayResults(files); err != nil {
		return err
	}
	return utils.NewAggregateError(failures...)
}

// initialize loads configuration and builds the pipeline
func (h *AppHandler) initialize(cmd *cobra.Command) error {
	h.config = config.LoadConfigWithEnvOverrides()
	h.applyCommandLineOverrides(cmd)

	if err := h.config.Validate(); err != nil {
		return utils.WrapError(err, utils.ErrorTypeValidation, "configuration validation failed")
	}

	h.logger = h.config.NewLogger()
	pipeline, err := core.NewDefaultPipeline(h.config, h.logger)
	if err != nil {
		return err
	}
	h.processor = pipeline
	h.languages = language.NewResolver(h.config.Languages)
	return nil
}

// applyCommandLineOverrides applies flags the user set explicitly
func (h *AppHandler) applyCommandLineOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("group-size") {
		h.config.GroupSize = groupSize
	}
	if flags.Changed("max-size") {
		h.config.MaxSize = maxSize
	}
	if flags.Changed("size-metric") {
		h.config.SizeMetric = sizeMetric
	}
	if flags.Changed("concurrency") {
		h.config.MaxConcurrency = concurrency
	}
	if manifestPath != "" {
		h.config.ManifestPath = manifestPath
	}
	if verbose {
		h.config.EnableVerbose = true
	}
}

// processAll runs the pipeline over inputs with bounded concurrency. A failed
// file does not stop the others; results keep the input order.
func (h *AppHandler) processAll(ctx context.Context, inputs []string) ([]server.ExtractedFile, []error) {
	size, _ := batcher.MetricByName(h.config.SizeMetric)

	perInput := make([][]server.ExtractedFile, len(inputs))
	var (
		mu       sync.Mutex
		failures []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.MaxConcurrency)
	for i, input := range inputs {
		g.Go(func() error {
			files, err := h.processInput(ctx, input, size)
			if err != nil {
				mu.Lock()
				failures = append(failures, utils.WrapError(err, "", input))
				mu.Unlock()
				return nil
			}
			perInput[i] = files
			return nil
		})
	}
	g.Wait()

	var files []server.ExtractedFile
	for _, f := range perInput {
		files = append(files, f...)
	}
	return files, failures
}

func (h *AppHandler) processInput(ctx context.Context, input string, size batcher.SizeFunc) ([]server.ExtractedFile, error) {
	results, err := h.processor.GetDocumentText(ctx, input, false, targetLanguage, ignoreHidden)
	if err != nil {
		return nil, err
	}
	files := make([]server.ExtractedFile, 0, len(results))
	for _, result := range results {
		batches, err := batcher.Split(result.Document.Flatten(), h.config.GroupSize, h.config.MaxSize, batcher.WithSize(size))
		if err != nil {
			return nil, err
		}
		files = append(files, server.ExtractedFile{ExtractionResult: result, Batches: batches})
	}
	return files, nil
}

// record stores the run in the manifest database
func (h *AppHandler) record(ctx context.Context, files []server.ExtractedFile) (string, error) {
	store, err := manifest.Open(h.config.ManifestPath, h.logger)
	if err != nil {
		return "", err
	}
	defer store.Close()

	runID, err := store.StartRun(ctx, targetLanguage)
	if err != nil {
		return "", err
	}
	for i := range files {
		id, err := store.RecordDocument(ctx, runID, files[i].ExtractionResult, files[i].Batches)
		if err != nil {
			return "", err
		}
		files[i].DocumentID = id
	}
	return runID, nil
}

// displayResults writes results to stdout, as JSON or as plain text
func (h *AppHandler) displayResults(files []server.ExtractedFile) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if files == nil {
			files = []server.ExtractedFile{}
		}
		return enc.Encode(server.ExtractResponse{Files: files})
	}

	for _, f := range files {
		if f.Skipped {
			h.logger.ProgressAlways("⏭️", "%s: copied to %s without extraction", f.Source, f.ResolvedPath)
			continue
		}
		h.logger.ProgressAlways("✅", "%s -> %s (%s, %d strings, %d batches, %dms)",
			f.Source, f.ResolvedPath, f.ExtractorUsed, len(f.Document.Flatten()), len(f.Batches), f.ProcessTime)

		fmt.Printf("==> %s <==\n", f.ResolvedPath)
		if showBatches {
			for i, b := range f.Batches {
				fmt.Printf("--- batch %d [%d,%d) size %d\n", i+1, b.Start, b.End, b.Size)
				for _, item := range b.Items {
					fmt.Println(item)
				}
			}
			continue
		}
		for _, s := range f.Document.Sections {
			for _, text := range s.Texts {
				fmt.Println(text)
			}
		}
	}
	return nil
}

// collectInputs expands input into the files to process. Directories are
// walked recursively; working copies produced for code by an earlier run are
// left out so they are not translated twice.
func collectInputs(input, code string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, utils.WrapError(err, "", fmt.Sprintf("cannot access %s", input))
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var candidates []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != input && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !strings.HasPrefix(d.Name(), ".") {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, fmt.Sprintf("failed to walk %s", input))
	}

	outputs := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		outputs[core.OutputName(c, code)] = true
	}
	inputs := candidates[:0]
	for _, c := range candidates {
		if !outputs[c] {
			inputs = append(inputs, c)
		}
	}
	sort.Strings(inputs)

	if err := checkWorkingCopyClashes(inputs, code); err != nil {
		return nil, err
	}
	return inputs, nil
}

// checkWorkingCopyClashes rejects inputs that share a working copy, such as
// a.doc and a.docx. Processing them would overwrite one copy with another.
func checkWorkingCopyClashes(inputs []string, code string) error {
	byOutput := make(map[string][]string, len(inputs))
	var outputs []string
	for _, in := range inputs {
		out := core.OutputName(in, code)
		if _, seen := byOutput[out]; !seen {
			outputs = append(outputs, out)
		}
		byOutput[out] = append(byOutput[out], in)
	}

	var clashes []string
	for _, out := range outputs {
		if group := byOutput[out]; len(group) > 1 {
			clashes = append(clashes, fmt.Sprintf("%s <- %s", filepath.Base(out), strings.Join(group, ", ")))
		}
	}
	if len(clashes) > 0 {
		return utils.NewValidationError(
			fmt.Sprintf("inputs share a working copy; rename or move all but one: %s", strings.Join(clashes, "; ")), nil)
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doc-translate-prep [path]",
	Short: "Extract translatable text from office documents",
	Long: `Extract the translatable text of office documents and group it into
batches sized for a translation service.

Supported formats:
- Word processing: .docx (and .doc, .pdf after conversion)
- Spreadsheets:    .xlsx (and .xls after conversion)
- Slide decks:     .pptx (and .ppt after conversion)
- Plain text:      .txt, .text

Every input is first copied (or converted) to a working copy named after the
target language, e.g. report.xls with --lang French becomes report.fr.xlsx.
Source files are never modified. Legacy formats need LibreOffice; set its
path with 'doc-translate-prep config set soffice_path <path>'.

Examples:
  doc-translate-prep report.docx --lang French              # Print the strings of report.fr.docx
  doc-translate-prep ./docs --lang German --batches         # Walk a directory and print batches
  doc-translate-prep deck.ppt --lang Japanese --json        # JSON output with sections and batches
  doc-translate-prep book.xlsx --lang es --manifest run.db  # Record segments and batches in SQLite
  doc-translate-prep serve                                  # Serve the HTTP API`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Printf("doc-translate-prep %s\n", version)
			return
		}

		if len(args) == 0 {
			cmd.Help()
			return
		}
		if targetLanguage == "" {
			log.Fatalf("Error: --lang is required")
		}

		handler := NewAppHandler()
		if err := handler.Run(cmd, args[0]); err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				log.Fatalf("Error (%s): %s", appErr.Type, appErr.Message)
			} else {
				log.Fatalf("Error: %v", err)
			}
		}
	},
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.Flags().StringVarP(&targetLanguage, "lang", "l", "",
		"Target language name or code (e.g. French, de, pt-BR)")
	rootCmd.Flags().BoolVar(&ignoreHidden, "ignore-hidden", false,
		"Skip hidden runs in word-processing documents")
	rootCmd.Flags().BoolVarP(&showBatches, "batches", "b", false,
		"Print strings grouped into batches")
	rootCmd.Flags().IntVar(&groupSize, "group-size", 0,
		"Maximum number of strings per batch (default from config)")
	rootCmd.Flags().IntVar(&maxSize, "max-size", 0,
		"Size limit per multi-string batch (default from config)")
	rootCmd.Flags().StringVar(&sizeMetric, "size-metric", "",
		"Batch size unit: runes, utf16 or bytes")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0,
		"Files processed in parallel in directory mode (default from config)")
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "",
		"SQLite file to record segments and batches in")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output to show progress information")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false,
		"Show version information")
}
