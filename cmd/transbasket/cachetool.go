package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/transbasket"
	"github.com/ZaguanLabs/transbasket/cache"
)

const displayTextChars = 30

type cacheToolFlags struct {
	backend string
	path    string
}

func (f *cacheToolFlags) open() (*cache.Cache, error) {
	kind, err := cache.ParseKind(f.backend)
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Options{Kind: kind, Path: f.path})
}

func newCacheCmd() *cobra.Command {
	flags := new(cacheToolFlags)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation cache.",
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.backend, "backend", "b", "text", "cache backend (text or sqlite)")
	pf.StringVarP(&flags.path, "file", "f", "trans_dictionary.jsonl", "cache file or database path")

	cmd.AddCommand(
		newCacheStatsCmd(flags),
		newCacheCleanupCmd(flags),
		newCacheListCmd(flags),
		newCacheExportCmd(flags),
		newCacheDeleteCmd(flags),
		newCacheClearCmd(flags),
	)
	return cmd
}

func newCacheStatsCmd(flags *cacheToolFlags) *cobra.Command {
	var threshold, days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			s, err := c.Stats(threshold, days)
			if err != nil {
				return err
			}

			fmt.Printf("backend:  %s\n", c.Kind())
			fmt.Printf("total:    %d\n", s.Total)
			fmt.Printf("active:   %d (count >= %d)\n", s.Active, threshold)
			fmt.Printf("expired:  %d (unused for %d days)\n", s.Expired, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 5, "confirmation threshold")
	cmd.Flags().IntVar(&days, "days", 30, "expiry age in days")
	return cmd
}

func newCacheCleanupCmd(flags *cacheToolFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <days>",
		Short: "Remove entries unused for more than <days> days.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[0])
			if err != nil || days < 1 {
				return fmt.Errorf("days must be a positive integer, got %q", args[0])
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			removed, err := c.Cleanup(days)
			if err != nil {
				return err
			}
			if err := c.Save(); err != nil {
				return err
			}

			fmt.Printf("removed %d entries older than %d days\n", removed, days)
			return nil
		},
	}
}

// langPairFilter returns a predicate for the optional [from to] args.
func langPairFilter(args []string) (func(cache.Entry) bool, error) {
	if len(args) == 0 {
		return func(cache.Entry) bool { return true }, nil
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("expected both a source and target language, got %d args", len(args))
	}
	from, ok := transbasket.NormalizeLanguage(args[0])
	if !ok {
		return nil, fmt.Errorf("invalid language %q", args[0])
	}
	to, ok := transbasket.NormalizeLanguage(args[1])
	if !ok {
		return nil, fmt.Errorf("invalid language %q", args[1])
	}
	return func(e cache.Entry) bool {
		return e.FromLang == from && e.ToLang == to
	}, nil
}

func newCacheListCmd(flags *cacheToolFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [from_lang to_lang]",
		Short: "List cache entries, optionally filtered by language pair.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := langPairFilter(args)
			if err != nil {
				return err
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			fmt.Printf("%-6s %-5s %-5s %-6s %-32s %-32s %s\n",
				"ID", "From", "To", "Count", "Source", "Translation", "Last Used")

			shown := 0
			err = c.ForEach(func(e cache.Entry) error {
				if !match(e) {
					return nil
				}
				fmt.Printf("%-6d %-5s %-5s %-6d %-32s %-32s %s\n",
					e.ID, e.FromLang, e.ToLang, e.Count,
					transbasket.Truncate(e.SourceText, displayTextChars, "..."),
					transbasket.Truncate(e.TranslatedText, displayTextChars, "..."),
					time.Unix(e.LastUsed, 0).Format("2006-01-02 15:04:05"))
				shown++
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Printf("\ntotal: %d entries\n", shown)
			return nil
		},
	}
}

func newCacheExportCmd(flags *cacheToolFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export [from_lang to_lang]",
		Short: "Export cache entries to stdout as JSONL.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := langPairFilter(args)
			if err != nil {
				return err
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			enc := json.NewEncoder(os.Stdout)
			return c.ForEach(func(e cache.Entry) error {
				if !match(e) {
					return nil
				}
				return enc.Encode(map[string]any{
					"id":         e.ID,
					"hash":       e.Hash,
					"from":       e.FromLang,
					"to":         e.ToLang,
					"source":     e.SourceText,
					"target":     e.TranslatedText,
					"count":      e.Count,
					"last_used":  e.LastUsed,
					"created_at": e.CreatedAt,
				})
			})
		},
	}
}

func newCacheDeleteCmd(flags *cacheToolFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a single cache entry by id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be an integer, got %q", args[0])
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Remove(id); err != nil {
				return err
			}
			if err := c.Save(); err != nil {
				return err
			}

			fmt.Printf("deleted entry %d\n", id)
			return nil
		},
	}
}

func newCacheClearCmd(flags *cacheToolFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <from_lang> <to_lang>",
		Short: "Delete every entry for a language pair.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, ok := transbasket.NormalizeLanguage(args[0])
			if !ok {
				return fmt.Errorf("invalid language %q", args[0])
			}
			to, ok := transbasket.NormalizeLanguage(args[1])
			if !ok {
				return fmt.Errorf("invalid language %q", args[1])
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			removed, err := c.RemovePair(from, to)
			if err != nil {
				return err
			}
			if err := c.Save(); err != nil {
				return err
			}

			fmt.Printf("removed %d entries (%s -> %s)\n", removed, from, to)
			return nil
		},
	}
}
