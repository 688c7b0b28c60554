package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finledger/internal/core"
	"finledger/internal/ledger"
)

func addCmd(a *app) *cobra.Command {
	var in core.EntryInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an income or expense entry",
		Example: `  ledger add --category food --amount 12.50 --description lunch
  ledger add --kind income --category salary --amount 2500 --date 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := a.session.Ledger.AddEntry(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.renderer(cmd).Success("Entry %d added: %s %s %s",
				entry.ID, entry.Kind, entry.Category, a.renderer(cmd).Money(entry.Amount))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", time.Now().Format(core.DateLayout), "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Kind, "kind", "expense", "income or expense")
	cmd.Flags().StringVar(&in.Category, "category", "", "category, e.g. food")
	cmd.Flags().StringVar(&in.Amount, "amount", "", "positive amount, e.g. 12.50")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-text note")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			if err := a.session.Ledger.DeleteEntry(cmd.Context(), id); err != nil {
				return err
			}
			a.renderer(cmd).Success("Entry %d deleted", id)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var (
		sortBy string
		desc   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := core.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			entries, err := a.session.Ledger.ListEntries(cmd.Context(), ledger.ListOptions{SortBy: field, Desc: desc})
			if err != nil {
				return err
			}
			a.renderer(cmd).Entries("All Entries", entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "date", "sort by date, amount, category or id")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	return cmd
}

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show total income, expense and savings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			totals, err := a.session.Ledger.Summary(cmd.Context())
			if err != nil {
				return err
			}
			a.renderer(cmd).Totals(totals)
			return nil
		},
	}
}

func monthsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List the months that have entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			months, err := a.session.Ledger.Months(cmd.Context())
			if err != nil {
				return err
			}
			a.renderer(cmd).Months(months)
			return nil
		},
	}
}

func monthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month <YYYY-MM>",
		Short: "Show the category breakdown of one month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown, err := a.session.Ledger.MonthlySummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.renderer(cmd).Month(breakdown)
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <category|date|keyword> <query>",
		Short: "Find entries by category, date or description keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := core.ParseSearchMode(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			results, err := a.session.Ledger.Search(cmd.Context(), mode, query)
			if err != nil {
				return err
			}
			a.renderer(cmd).Entries("Search Results", results)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Printing the version needs no ledger.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger %s\n", version)
		},
	}
}
