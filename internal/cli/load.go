package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load [source]",
	Short: "Load a PDF from a URL, a path or stdin",
	Long: `Runs the pipeline on one source and prints a summary. Use - to read
the PDF from stdin; stdin input is never cached.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var (
	loadOut        string
	loadFormat     string
	loadNoCaptions bool
	loadNoCache    bool
	loadPassURL    bool
)

func init() {
	loadCmd.Flags().StringVarP(&loadOut, "out", "o", "", "write the result to this file")
	loadCmd.Flags().StringVarP(&loadFormat, "format", "f", "summary", "output format: summary, json or markdown")
	loadCmd.Flags().BoolVar(&loadNoCaptions, "no-captions", false, "skip table captions")
	loadCmd.Flags().BoolVar(&loadNoCache, "no-cache", false, "neither read nor write the OCR cache")
	loadCmd.Flags().BoolVar(&loadPassURL, "pass-url", false, "send URLs to the OCR service instead of downloading them")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	switch loadFormat {
	case "summary", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q", loadFormat)
	}

	overrides := map[string]any{}
	if loadNoCaptions {
		override(overrides, "caption", "enabled", false)
	}
	if loadNoCache {
		override(overrides, "cache", "enabled", false)
	}
	if loadPassURL {
		override(overrides, "ocr", "passurl", true)
	}

	a, err := buildApp(cmd, overrides)
	if err != nil {
		return err
	}

	var src any = args[0]
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		src = data
	}

	doc, err := a.Loader.Load(cmd.Context(), src)
	if err != nil {
		return err
	}

	var out []byte
	switch loadFormat {
	case "json":
		if out, err = doc.ToJSON(); err != nil {
			return err
		}
	case "markdown":
		out = []byte(doc.Markdown() + "\n")
	}

	if loadOut != "" {
		if out == nil {
			if out, err = doc.ToJSON(); err != nil {
				return err
			}
		}
		if err := os.WriteFile(loadOut, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", loadOut, err)
		}
		printSummary(cmd.OutOrStdout(), doc)
		cmd.Printf("Written to %s\n", loadOut)
		return nil
	}

	if out != nil {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	printSummary(cmd.OutOrStdout(), doc)
	return nil
}

func printSummary(w io.Writer, doc *document.Document) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	title := doc.Title
	if title == "" {
		title = "(untitled)"
	}
	bold.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "  id:     %s\n", doc.ID)
	if doc.Source != "" {
		fmt.Fprintf(w, "  source: %s\n", doc.Source)
	}
	fmt.Fprintf(w, "  pages:  %d\n", len(doc.Pages))

	tables := doc.Tables()
	captioned := 0
	for _, t := range tables {
		if t.Caption != nil {
			captioned++
		}
	}
	fmt.Fprintf(w, "  tables: %d (%d captioned)\n", len(tables), captioned)

	for _, p := range doc.Pages {
		for _, t := range p.Tables {
			if t.Caption == nil {
				continue
			}
			green.Fprintf(w, "  p%d %s: ", p.Number, t.SourceID)
			fmt.Fprintf(w, "%s\n", *t.Caption)
		}
	}

	for _, warn := range doc.Warnings {
		yellow.Fprintf(w, "  warning: ")
		fmt.Fprintf(w, "page %d table %s: %s [%s]\n", warn.Page, warn.TableID, warn.Message, warn.Code)
	}
}
