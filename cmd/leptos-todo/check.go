package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/johann/leptos-todo/internal/client"
	"github.com/johann/leptos-todo/internal/config"
	"github.com/johann/leptos-todo/internal/server"
	"github.com/johann/leptos-todo/internal/site"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the end-to-end check",
	Long: `Start a throwaway server on a free port with a temporary database and
site package built for LEPTOS_OUTPUT_NAME, then exercise every server
function and the page over HTTP.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "leptos-todo-check-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	cfg.SiteRoot = filepath.Join(dir, "site")
	cfg.DBPath = filepath.Join(dir, "Todos.db")
	cfg.SiteAddr = "127.0.0.1:0"
	cfg.MetricsPort = 0
	cfg.APIDelay = 0

	if _, err := buildSite(cfg.Layout()); err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Options{})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ln, err := net.Listen("tcp", cfg.SiteAddr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	baseURL := "http://" + ln.Addr().String()
	checkErr := endToEnd(ctx, cmd.OutOrStdout(), baseURL, cfg.Token, cfg.Layout())

	cancel()
	if err := <-done; err != nil {
		return err
	}
	return checkErr
}

type checkStep struct {
	name string
	run  func(ctx context.Context) error
}

// endToEnd runs every step against the server at baseURL and prints one
// line per step. It keeps going after a failure.
func endToEnd(ctx context.Context, out io.Writer, baseURL, token string, layout site.Layout) error {
	c, err := client.New(&config.ClientConfig{ServerURL: baseURL, Token: token})
	if err != nil {
		return err
	}

	var first storage.TodoItem
	steps := []checkStep{
		{"health", c.Health},
		{"page links the bundle", func(ctx context.Context) error {
			body, err := fetch(ctx, baseURL+"/")
			if err != nil {
				return err
			}
			if !strings.Contains(body, layout.StylesheetHref()) {
				return fmt.Errorf("page does not link %s", layout.StylesheetHref())
			}
			return nil
		}},
		{"stylesheet served", func(ctx context.Context) error {
			_, err := fetch(ctx, baseURL+layout.StylesheetHref())
			return err
		}},
		{"linked assets served", func(ctx context.Context) error {
			page, err := fetch(ctx, baseURL+"/")
			if err != nil {
				return err
			}
			assets, err := linkedAssets(page)
			if err != nil {
				return err
			}
			base, err := url.Parse(baseURL + "/")
			if err != nil {
				return err
			}
			var missing []string
			for _, a := range assets {
				ref, err := url.Parse(a)
				if err != nil {
					missing = append(missing, a)
					continue
				}
				if _, err := fetch(ctx, base.ResolveReference(ref).String()); err != nil {
					missing = append(missing, a)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("not served: %s", strings.Join(missing, ", "))
			}
			return nil
		}},
		{"add", func(ctx context.Context) error {
			var err error
			if first, err = c.AddTodo(ctx, "check one"); err != nil {
				return err
			}
			if _, err := c.AddTodo(ctx, "check two"); err != nil {
				return err
			}
			return expectTodos(ctx, c, 2, 0)
		}},
		{"toggle", func(ctx context.Context) error {
			if err := c.ToggleTodo(ctx, first.ID); err != nil {
				return err
			}
			if err := expectTodos(ctx, c, 2, 1); err != nil {
				return err
			}
			if err := c.ToggleTodo(ctx, first.ID); err != nil {
				return err
			}
			return expectTodos(ctx, c, 2, 0)
		}},
		{"search", func(ctx context.Context) error {
			found, err := c.SearchTodos(ctx, "two")
			if err != nil {
				return err
			}
			if len(found) != 1 || found[0].Task != "check two" {
				return fmt.Errorf("search returned %v", found)
			}
			return nil
		}},
		{"mark all done", func(ctx context.Context) error {
			if err := c.MarkAllDone(ctx); err != nil {
				return err
			}
			return expectTodos(ctx, c, 2, 2)
		}},
		{"mark all undone", func(ctx context.Context) error {
			if err := c.MarkAllUndone(ctx); err != nil {
				return err
			}
			return expectTodos(ctx, c, 2, 0)
		}},
		{"delete", func(ctx context.Context) error {
			if err := c.DeleteTodo(ctx, first.ID); err != nil {
				return err
			}
			var apiErr *client.APIError
			if err := c.DeleteTodo(ctx, first.ID); !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
				return fmt.Errorf("deleting twice: want 404, got %v", err)
			}
			return expectTodos(ctx, c, 1, 0)
		}},
		{"delete all", func(ctx context.Context) error {
			if err := c.DeleteAll(ctx); err != nil {
				return err
			}
			return expectTodos(ctx, c, 0, 0)
		}},
	}

	failed := 0
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", step.name, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", step.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(steps))
	}
	return nil
}

// linkedAssets returns the stylesheet, script and image URLs a page loads.
func linkedAssets(page string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var assets []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			key := ""
			switch n.DataAtom {
			case atom.Link:
				key = "href"
			case atom.Script, atom.Img:
				key = "src"
			}
			for _, a := range n.Attr {
				if key != "" && a.Key == key && a.Val != "" {
					assets = append(assets, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return assets, nil
}

func expectTodos(ctx context.Context, c *client.Client, total, done int) error {
	todos, err := c.GetTodos(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, t := range todos {
		if t.Done {
			n++
		}
	}
	if len(todos) != total || n != done {
		return fmt.Errorf("want %d todos (%d done), got %d (%d done)", total, done, len(todos), n)
	}
	return nil
}

func fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return string(body), nil
}
