package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/johann/leptos-todo/internal/client"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add [task...]",
	Short: "Add a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Mark a todo done or not done",
	Args:  cobra.ExactArgs(1),
	RunE:  runByID((*client.Client).ToggleTodo),
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runByID((*client.Client).DeleteTodo),
}

var doneCmd = &cobra.Command{
	Use:   "done",
	Short: "Mark every todo done",
	Args:  cobra.NoArgs,
	RunE:  runBulk((*client.Client).MarkAllDone),
}

var undoneCmd = &cobra.Command{
	Use:   "undone",
	Short: "Mark every todo not done",
	Args:  cobra.NoArgs,
	RunE:  runBulk((*client.Client).MarkAllUndone),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every todo",
	Args:  cobra.NoArgs,
	RunE:  runBulk((*client.Client).DeleteAll),
}

var listSearch string

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only show todos containing this text")
}

func runList(cmd *cobra.Command, args []string) error {
	c, ctx, cancel, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	var todos []storage.TodoItem
	if listSearch != "" {
		todos, err = c.SearchTodos(ctx, listSearch)
	} else {
		todos, err = c.GetTodos(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list todos: %w", err)
	}

	printTodos(cmd.OutOrStdout(), todos)
	return nil
}

func printTodos(w io.Writer, todos []storage.TodoItem) {
	if len(todos) == 0 {
		fmt.Fprintln(w, "No data")
		return
	}
	for _, t := range todos {
		mark := " "
		if t.Done {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %4d  %s\n", mark, t.ID, t.Task)
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, ctx, cancel, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	item, err := c.AddTodo(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to add todo: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d: %s\n", item.ID, item.Task)
	return nil
}

func runByID(action func(*client.Client, context.Context, uint32) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := connect(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		if err := action(c, ctx, id); err != nil {
			return fmt.Errorf("todo %d: %w", id, err)
		}
		return nil
	}
}

func runBulk(action func(*client.Client, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := connect(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		return action(c, ctx)
	}
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return uint32(id), nil
}
