package main

import (
	"fmt"
	"time"

	"github.com/johann/leptos-todo/internal/snapshot"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Snapshot operations",
	Long:  "Push, list, restore, and delete snapshots of the todo list in S3 (TODO_S3_* settings).",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the current todo list",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotPush,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull [key]",
	Short: "Replace the todo list with a snapshot",
	Long:  "Replace the todo list with the given snapshot, or the newest one when no key is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotPull,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotDelete,
}

var snapshotKeep int

func init() {
	snapshotPushCmd.Flags().IntVar(&snapshotKeep, "keep", 0, "After pushing, delete all but the newest N snapshots (0 keeps everything)")

	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotPullCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}

type snapshotEnv struct {
	todos  *storage.Storage
	store  *storage.S3Client
	prefix string
}

func openSnapshotEnv(cmd *cobra.Command, needTodos bool) (*snapshotEnv, error) {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewS3Client(cmd.Context(), cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	e := &snapshotEnv{store: store, prefix: cfg.S3.Prefix}
	if needTodos {
		if e.todos, err = storage.New(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	return e, nil
}

func (e *snapshotEnv) Close() {
	if e.todos != nil {
		e.todos.Close()
	}
}

func runSnapshotPush(cmd *cobra.Command, args []string) error {
	if snapshotKeep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}
	e, err := openSnapshotEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := snapshot.Push(cmd.Context(), e.todos, e.store, e.prefix)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pushed %d todos to %s (%d bytes, %s)\n", snap.Count, snap.Key, len(snap.Data), snap.Encoding)
	if snapshotKeep == 0 {
		return nil
	}
	deleted, err := snapshot.Prune(cmd.Context(), e.store, e.prefix, snapshotKeep)
	for _, key := range deleted {
		fmt.Fprintf(out, "Deleted %s\n", key)
	}
	return err
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	e, err := openSnapshotEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	infos, err := snapshot.List(cmd.Context(), e.store, e.prefix)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No snapshots found")
		return nil
	}
	fmt.Fprintf(out, "Found %d snapshot(s):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(out, "%s\n", info.Key)
		fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "  Size:    %d bytes\n", info.Size)
	}
	return nil
}

func runSnapshotPull(cmd *cobra.Command, args []string) error {
	e, err := openSnapshotEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	var key string
	if len(args) == 1 {
		key = args[0]
	}
	doc, err := snapshot.Pull(cmd.Context(), e.todos, e.store, e.prefix, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d todos from snapshot taken %s\n", len(doc.Todos), doc.CreatedAt.Format(time.RFC3339))
	return nil
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	e, err := openSnapshotEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := snapshot.Delete(cmd.Context(), e.store, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
