package cli

import (
	"fmt"
	"io"

	"fitmate/format"

	"github.com/spf13/cobra"
)

type formatOptions struct {
	keepNewlines bool
	workout      bool
	escape       bool
	citations    bool
}

func (o formatOptions) apply(text string) string {
	if o.citations {
		text = format.StripCitations(text)
	}
	text = format.Sanitize(text, o.keepNewlines)
	switch {
	case o.workout:
		text = format.FormatWorkout(text)
	case o.escape:
		text = format.EscapeMarkdown(text)
	}
	return text
}

func newFormatCmd() *cobra.Command {
	var opts formatOptions

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Clean up assistant text read from stdin",
		Example: `  pbpaste | fitmate format --workout
  fitmate format --keep-newlines < reply.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), opts.apply(string(in)))
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.keepNewlines, "keep-newlines", false, "preserve line breaks while sanitizing")
	cmd.Flags().BoolVar(&opts.workout, "workout", false, "lay the text out as a workout plan")
	cmd.Flags().BoolVar(&opts.escape, "escape", false, "escape Markdown control characters")
	cmd.Flags().BoolVar(&opts.citations, "strip-citations", false, "drop file search citation markers first")
	cmd.MarkFlagsMutuallyExclusive("workout", "escape")
	return cmd
}
