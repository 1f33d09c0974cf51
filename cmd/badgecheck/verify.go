package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/capiscio/badgecheck/internal/config"
	"github.com/capiscio/badgecheck/pkg/report"
	"github.com/capiscio/badgecheck/pkg/tasks"
	"github.com/capiscio/badgecheck/pkg/verifier"
)

var (
	flagJSON       bool
	flagConfig     string
	flagRecipients []string
	flagMaxDepth   int
	flagNoCache    bool
	flagCacheTTL   time.Duration
	flagLogLevel   string
	flagLogFormat  string
)

// errInvalid signals an invalid badge; the report has already been printed.
var errInvalid = errors.New("badge is not valid")

func init() {
	verifyCmd.Flags().BoolVar(&flagJSON, "json", false, "Output the full result as JSON")
	verifyCmd.Flags().StringVar(&flagConfig, "config", "", "Path to an HCL configuration file")
	verifyCmd.Flags().StringArrayVar(&flagRecipients, "recipient", nil, "Expected recipient as type:value (e.g. email:someone@example.org); repeatable")
	verifyCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "Maximum depth of related nodes to validate")
	verifyCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable response caching")
	verifyCmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", 0, "How long fetched responses are reused")
	verifyCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	verifyCmd.Flags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [url|file|json|jws]",
	Short: "Verify an Open Badge",
	Long: `Verify an Open Badges assertion given as a hosted URL, a JSON document,
a compact JWS or a path to a local file (JSON, JWS or baked image).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load configuration
		cfg, file, err := buildConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		opts := verifier.VerifyOptions{}
		if file != nil {
			opts.RecipientProfile = file.RecipientProfile()
		}
		if len(flagRecipients) > 0 {
			profile, err := parseRecipients(flagRecipients)
			if err != nil {
				return err
			}
			opts.RecipientProfile = profile
		}

		// 2. Verify
		v := verifier.New(cfg)
		result, err := runVerify(cmd.Context(), v, args[0], opts)
		if err != nil {
			return err
		}

		// 3. Output
		out := cmd.OutOrStdout()
		if flagJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
		} else {
			printText(out, result)
		}

		if !result.Report.Valid {
			return errInvalid
		}
		return nil
	},
}

// buildConfig layers the config file and flags over the defaults.
func buildConfig(logW io.Writer) (*verifier.Config, *config.File, error) {
	cfg := verifier.DefaultConfig()

	var file *config.File
	if flagConfig != "" {
		var err error
		file, err = config.Load(flagConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := file.Apply(cfg); err != nil {
			return nil, nil, err
		}
	}

	if flagMaxDepth > 0 {
		cfg.MaxValidationDepth = flagMaxDepth
	}
	if flagNoCache {
		cfg.CacheEnabled = false
	}
	if flagCacheTTL > 0 {
		cfg.CacheTTL = flagCacheTTL
	}

	level, format := flagLogLevel, flagLogFormat
	if file != nil {
		if level == "" {
			level = file.LogLevel
		}
		if format == "" {
			format = file.LogFormat
		}
	}
	cfg.Logger = newLogger(level, format, logW)

	return cfg, file, nil
}

// parseRecipients turns type:value pairs into a recipient profile.
func parseRecipients(values []string) (map[string][]string, error) {
	profile := make(map[string][]string)
	for _, v := range values {
		typ, identity, ok := strings.Cut(v, ":")
		typ = strings.ToLower(strings.TrimSpace(typ))
		identity = strings.TrimSpace(identity)
		if !ok || typ == "" || identity == "" {
			return nil, fmt.Errorf("invalid recipient %q: expected type:value", v)
		}
		profile[typ] = append(profile[typ], identity)
	}
	return profile, nil
}

// runVerify reads input as a file when it names one, and verifies it as a
// URL, JSON document or JWS otherwise.
func runVerify(ctx context.Context, v *verifier.Verifier, input string, opts verifier.VerifyOptions) (*report.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return v.VerifyFile(ctx, data, opts)
	}
	return v.Verify(ctx, input, opts)
}

func printText(w io.Writer, result *report.Result) {
	summary := result.Report
	if summary.Valid {
		fmt.Fprintf(w, "✅ %s is VALID\n", subject(summary))
	} else {
		fmt.Fprintf(w, "❌ %s is INVALID\n", subject(summary))
	}
	if summary.OpenBadgesVersion != "" {
		fmt.Fprintf(w, "   Open Badges version: %s\n", summary.OpenBadgesVersion)
	}
	fmt.Fprintf(w, "   Input type: %s\n", result.Input.Type)
	fmt.Fprintf(w, "   Errors: %d, Warnings: %d\n", summary.ErrorCount, summary.WarningCount)

	for _, m := range summary.Messages {
		icon := "ℹ️ "
		switch m.MessageLevel {
		case tasks.LevelError:
			icon = "❌"
		case tasks.LevelWarning:
			icon = "⚠️ "
		}
		fmt.Fprintf(w, "   %s [%s] %s\n", icon, m.Name, m.Result)
	}
}

func subject(s report.Summary) string {
	if s.ValidationSubject == "" {
		return "Badge"
	}
	return s.ValidationSubject
}
