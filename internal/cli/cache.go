package cli

import (
	"fmt"
	"regexp"
	"text/tabwriter"
	"time"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the OCR cache",
}

var cacheKeyCmd = &cobra.Command{
	Use:   "key [source]",
	Short: "Print the cache file name for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheKey,
}

var cacheListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached OCR responses",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "rm [source-or-key]",
	Short: "Remove a cached OCR response",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheRemove,
}

var md5Hex = regexp.MustCompile(`^[0-9a-f]{32}$`)

func init() {
	cacheCmd.AddCommand(cacheKeyCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheKey(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), document.CacheFileName(document.CacheKey(args[0])))
	return err
}

func openCache(cmd *cobra.Command) (*document.Cache, error) {
	overrides := map[string]any{}
	// listing the cache needs no model
	override(overrides, "caption", "enabled", false)

	a, err := buildApp(cmd, overrides)
	if err != nil {
		return nil, err
	}
	if a.Cache == nil {
		return nil, document.NewError(document.ErrCodeInvalidConfig, "Cache is disabled")
	}
	return a.Cache, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd)
	if err != nil {
		return err
	}

	entries, err := cache.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Printf("No cached responses in %s\n", cache.Root())
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, humanSize(e.Size), e.ModTime.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Printf("Total: %d entries in %s\n", len(entries), cache.Root())
	return nil
}

func runCacheRemove(cmd *cobra.Command, args []string) error {
	cache, err := openCache(cmd)
	if err != nil {
		return err
	}

	key := args[0]
	if !md5Hex.MatchString(key) {
		key = document.CacheKey(key)
	}
	if err := cache.Delete(cmd.Context(), key); err != nil {
		return err
	}
	cmd.Printf("Removed %s\n", document.CacheFileName(key))
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
