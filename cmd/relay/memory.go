package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/memory"
)

var (
	memAgent    string
	memPriority string
	memTags     []string
	memTTL      time.Duration
	memLimit    int
	memListTag  string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage long-term agent memory",
	Long: `Store, retrieve and search long-term memories. Keys are scoped to an agent
namespace (memory.namespace, or --agent).

Content that parses as JSON is stored as JSON; anything else is stored as
text.

Examples:
  relay memory put project '{"name":"lamp","stage":"design"}' --tag product
  relay memory get project
  relay memory update project '{"name":"lamp","stage":"build"}'
  relay memory list --tag product
  relay memory search lamp
  relay memory prune`,
}

var memoryPutCmd = &cobra.Command{
	Use:   "put KEY CONTENT",
	Short: "Create or replace a memory",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemoryPut,
}

var memoryGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Retrieve a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryGet,
}

var memoryUpdateCmd = &cobra.Command{
	Use:   "update KEY CONTENT",
	Short: "Replace the content of an existing memory",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemoryUpdate,
}

var memoryDeleteCmd = &cobra.Command{
	Use:     "delete KEY",
	Aliases: []string{"rm"},
	Short:   "Delete a memory",
	Args:    cobra.ExactArgs(1),
	RunE:    runMemoryDelete,
}

var memoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List memories",
	Args:    cobra.NoArgs,
	RunE:    runMemoryList,
}

var memorySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search memory content and tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemorySearch,
}

var memoryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired memories",
	Args:  cobra.NoArgs,
	RunE:  runMemoryPrune,
}

func init() {
	memoryCmd.PersistentFlags().StringVar(&memAgent, "agent", "", "agent namespace (default: memory.namespace)")

	memoryPutCmd.Flags().StringVar(&memPriority, "priority", memory.PriorityNormal, "priority (high, normal, low)")
	memoryPutCmd.Flags().StringSliceVar(&memTags, "tag", nil, "tag (repeatable)")
	memoryPutCmd.Flags().DurationVar(&memTTL, "ttl", 0, "lifetime; zero keeps the memory until deleted")

	memoryListCmd.Flags().StringVar(&memPriority, "priority", "", "only list this priority")
	memoryListCmd.Flags().StringVar(&memListTag, "tag", "", "only list memories with this tag")
	memoryListCmd.Flags().IntVar(&memLimit, "limit", 0, "maximum number of results")

	memorySearchCmd.Flags().IntVar(&memLimit, "limit", 20, "maximum number of results")

	memoryCmd.AddCommand(memoryPutCmd, memoryGetCmd, memoryUpdateCmd, memoryDeleteCmd,
		memoryListCmd, memorySearchCmd, memoryPruneCmd)
	rootCmd.AddCommand(memoryCmd)
}

// withStore opens the memory store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(rt *app, store memory.Store) error) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	store, err := rt.memoryStore(memAgent)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			rt.logger.Warn("failed to close memory store", "error", err)
		}
	}()

	return fn(rt, store)
}

// parseContent keeps JSON content structured and everything else as text.
func parseContent(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
		return json.RawMessage(trimmed)
	}
	return raw
}

func runMemoryPut(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		err := store.Put(cmd.Context(), args[0], parseContent(args[1]), memory.PutOptions{
			Priority: memPriority,
			Tags:     memTags,
			TTL:      memTTL,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored %s\n", args[0])
		return nil
	})
}

func runMemoryGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if rt.format == cli.FormatText {
			fmt.Fprintln(rt.out, rec.Content)
			return nil
		}
		return rt.print(rec)
	})
}

func runMemoryUpdate(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		if err := store.Update(cmd.Context(), args[0], parseContent(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Updated %s\n", args[0])
		return nil
	})
}

func runMemoryDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", args[0])
		return nil
	})
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		records, err := store.List(cmd.Context(), memory.ListFilter{
			Tag:      memListTag,
			Priority: memPriority,
			Limit:    memLimit,
		})
		if err != nil {
			return err
		}
		return rt.printRecords(records)
	})
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		records, err := store.Search(cmd.Context(), args[0], memLimit)
		if err != nil {
			return err
		}
		return rt.printRecords(records)
	})
}

func runMemoryPrune(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(rt *app, store memory.Store) error {
		n, err := memory.NewPruner(store, rt.cfg.Memory.PruneSchedule, rt.metrics).Prune(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d expired memories\n", n)
		return nil
	})
}

func (rt *app) printRecords(records []*memory.Record) error {
	if rt.format == cli.FormatJSON {
		return rt.print(records)
	}

	table := &cli.Table{Headers: []string{"key", "priority", "tags", "accessed", "expires", "content"}}
	for _, rec := range records {
		expires := ""
		if rec.ExpiresAt != nil {
			expires = rec.ExpiresAt.Format(time.RFC3339)
		}
		table.AddRow(rec.Key, rec.Priority, strings.Join(rec.Tags, ","), rec.AccessCount, expires, truncate(rec.Content, 60))
	}
	return rt.print(table)
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
