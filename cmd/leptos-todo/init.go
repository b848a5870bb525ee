package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/johann/leptos-todo/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a deployment env file",
	Long:  "Interactive wizard that writes the LEPTOS_* and TODO_* settings to an env file for systemd or a shell.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var initOut string

func init() {
	initCmd.Flags().StringVar(&initOut, "out", "leptos-todo.env", "Env file to write")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "leptos-todo configuration wizard")
	fmt.Fprintln(out, "===============================")
	fmt.Fprintln(out)

	// Start from whatever the environment already says
	cfg, err := config.LoadServer()
	if err != nil {
		cfg, _ = config.LoadServerFrom(nil)
	}

	vars, err := askSettings(reader, out, cfg)
	if err != nil {
		return err
	}

	if _, err := config.LoadServerFrom(vars); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if err := os.WriteFile(initOut, []byte(envFile(vars)), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", initOut, err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved!")
	fmt.Fprintf(out, "Env file: %s\n", initOut)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Start the server with:")
	fmt.Fprintf(out, "  set -a; . ./%s; set +a; leptos-todo serve\n", initOut)
	return nil
}

func askSettings(reader *bufio.Reader, out io.Writer, cfg *config.ServerConfig) (map[string]string, error) {
	vars := map[string]string{}

	fmt.Fprintln(out, "Site")
	fmt.Fprintln(out, "----")
	vars["LEPTOS_OUTPUT_NAME"] = prompt(reader, out, "Output name", cfg.OutputName, "leptos-todo")
	vars["LEPTOS_SITE_ROOT"] = prompt(reader, out, "Site root", cfg.SiteRoot, "site")
	vars["LEPTOS_SITE_PKG_DIR"] = prompt(reader, out, "Package directory", cfg.SitePkgDir, "pkg")
	vars["LEPTOS_SITE_ADDR"] = prompt(reader, out, "Listen address", cfg.SiteAddr, "127.0.0.1:3000")
	vars["LEPTOS_RELOAD_PORT"] = prompt(reader, out, "Reload port", strconv.Itoa(cfg.ReloadPort), "3001")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Server")
	fmt.Fprintln(out, "------")
	vars["TODO_DB_PATH"] = prompt(reader, out, "Database path", cfg.DBPath, "Todos.db")
	vars["TODO_TITLE"] = prompt(reader, out, "Page title", cfg.Title, "Todo")
	if port := prompt(reader, out, "Metrics port (0 disables)", strconv.Itoa(cfg.MetricsPort), "0"); port != "0" {
		vars["TODO_METRICS_PORT"] = port
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Authentication")
	fmt.Fprintln(out, "--------------")
	token := cfg.Token
	if promptYesNo(reader, out, "Require a token for changes?", token != "") {
		if token == "" || promptYesNo(reader, out, "Regenerate authentication token?", false) {
			var err error
			if token, err = generateToken(); err != nil {
				return nil, fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Fprintf(out, "Generated new token: %s\n", token)
		}
		vars["TODO_API_TOKEN"] = token
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Snapshots")
	fmt.Fprintln(out, "---------")
	if promptYesNo(reader, out, "Configure S3 snapshots?", cfg.S3.Bucket != "") {
		vars["TODO_S3_ENDPOINT"] = prompt(reader, out, "S3 Endpoint URL", cfg.S3.Endpoint, "")
		vars["TODO_S3_BUCKET"] = prompt(reader, out, "S3 Bucket Name", cfg.S3.Bucket, "todo-snapshots")
		vars["TODO_S3_ACCESS_KEY"] = prompt(reader, out, "S3 Access Key", cfg.S3.AccessKey, "")
		vars["TODO_S3_SECRET_KEY"] = promptSecret(reader, out, "S3 Secret Key", cfg.S3.SecretKey)
		vars["TODO_S3_REGION"] = prompt(reader, out, "S3 Region", cfg.S3.Region, "us-east-1")
	}

	for k, v := range vars {
		if v == "" {
			delete(vars, k)
		}
	}
	return vars, nil
}

func envFile(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, strconv.Quote(vars[k]))
	}
	return b.String()
}

func prompt(reader *bufio.Reader, out io.Writer, label, current, defaultVal string) string {
	displayDefault := current
	if displayDefault == "" {
		displayDefault = defaultVal
	}

	if displayDefault != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, displayDefault)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		if current != "" {
			return current
		}
		return defaultVal
	}
	return input
}

func promptSecret(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current != "" {
		fmt.Fprintf(out, "%s [****hidden****]: ", label)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	return input
}

func promptYesNo(reader *bufio.Reader, out io.Writer, label string, defaultVal bool) bool {
	defaultStr := "y/N"
	if defaultVal {
		defaultStr = "Y/n"
	}

	fmt.Fprintf(out, "%s [%s]: ", label, defaultStr)

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultVal
	}

	return input == "y" || input == "yes"
}
