package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mscrnt/spd_studio/pkg/history"
	"github.com/mscrnt/spd_studio/pkg/spd"
	"github.com/spf13/cobra"
)

var (
	historySource string
	historyLimit  int
	historyOutput string
)

func createHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the image archive",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived images",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	listCmd.Flags().StringVar(&historySource, "source", "", "Filter by source (read, backup, import)")
	listCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to list")

	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export an archived image to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryExport,
	}
	exportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Output file (default spd-<id>.bin)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Decode and display an archived image",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived image",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)
	cmd.AddCommand(exportCmd)
	cmd.AddCommand(deleteCmd)

	return cmd
}

func openArchive() (*history.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(getDBPath(cfg))
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	db, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entries, err := db.List(history.Filter{Source: historySource, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Archive is empty")
		return nil
	}

	fmt.Printf("%-5s %-20s %-8s %-22s %-10s %s\n", "ID", "Date", "Source", "Part Number", "Serial", "Label")
	for _, e := range entries {
		fmt.Printf("%-5d %-20s %-8s %-22s %-10s %s\n",
			e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Source,
			e.PartNumber, e.SerialNumber, e.Label)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	db, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entry, err := db.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("Entry %d (%s, archived %s)\n\n", entry.ID, entry.Source,
		entry.CreatedAt.Format("2006-01-02 15:04:05"))

	rec, decErr := spd.Decode(entry.Image)
	if decErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", decErr)
	}
	printSummary(rec)
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	db, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entry, err := db.Get(id)
	if err != nil {
		return err
	}

	out := historyOutput
	if out == "" {
		out = fmt.Sprintf("spd-%d.bin", id)
	}
	if err := entry.Image.WriteFile(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Exported entry %d to %s\n", id, out)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	db, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted entry %d\n", id)
	return nil
}
