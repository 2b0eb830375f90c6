package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type compareFlags struct {
	k       int
	offsets string
	html    bool
	asJSON  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shinglecheck",
		Short:        "Compare two text documents for shared phrases",
		SilenceUsage: true,
	}
	root.AddCommand(newCompareCmd())
	return root
}

func newCompareCmd() *cobra.Command {
	flags := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare FILE1 FILE2",
		Short: "Report similarity and highlight shared spans of two files ('-' reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text1, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			text2, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			engine := plagiarism.NewEngine(plagiarism.Options{
				MaxShingle: flags.k,
				OffsetMode: plagiarism.ParseOffsetMode(flags.offsets),
			})
			result := engine.Compare(text1, text2)

			return writeResult(cmd.OutOrStdout(), result, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.k, "k", "k", plagiarism.DefaultShingleSize, "maximum shingle width in words")
	cmd.Flags().StringVar(&flags.offsets, "offsets", string(plagiarism.OffsetExact), "offset recovery: exact or search")
	cmd.Flags().BoolVar(&flags.html, "html", false, "render documents as HTML")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the raw result as JSON")

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func writeResult(w io.Writer, result *plagiarism.Result, flags *compareFlags) error {
	if flags.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	var marker plagiarism.Marker = plagiarism.NewANSIMarker()
	if flags.html {
		marker = plagiarism.HTMLMarker{}
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %.2f%% (%s)\n", bold("Similarity:"), result.Similarity, result.Verdict)
	fmt.Fprintf(w, "%s k=%d, %d raw matches\n\n", bold("Shingles:"), result.ShingleSize, result.RawMatches)

	fmt.Fprintf(w, "%s %d highlighted sections, %.2f%% covered\n", bold("Document 1:"), len(result.Doc1Matches), result.Doc1Coverage)
	fmt.Fprintln(w, plagiarism.Highlight(result.Doc1Text, result.Doc1Matches, marker))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d highlighted sections, %.2f%% covered\n", bold("Document 2:"), len(result.Doc2Matches), result.Doc2Coverage)
	fmt.Fprintln(w, plagiarism.Highlight(result.Doc2Text, result.Doc2Matches, marker))

	return nil
}
