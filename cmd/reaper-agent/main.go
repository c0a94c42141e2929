// Package main is the entry point for the reaper-agent CLI. It drives a
// running REAPER instance over a file command bridge, either interactively
// through an LLM conversation loop or directly via subcommands.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cjell/REAPER/agents/assistant"
	"github.com/cjell/REAPER/agents/beat"
	"github.com/cjell/REAPER/agents/coordination"
	"github.com/cjell/REAPER/bridge"
	"github.com/cjell/REAPER/config"
	"github.com/cjell/REAPER/llm"
	"github.com/cjell/REAPER/samples"
)

const (
	version            = "0.1.0"
	sentryFlushTimeout = 2 * time.Second
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "reaper-agent",
		Short: "LLM-driven REAPER control over a file command bridge",
		Long: `reaper-agent talks to a running REAPER instance through a file bridge:
commands go into command.json, a script inside REAPER executes them and
writes ack.json back.

Run without arguments for the interactive conversation loop, or use the
subcommands to exercise the bridge and sample library directly:

  Interactive session:   reaper-agent
  Browse local samples:  reaper-agent samples --category kicks
  Add a beat directly:   reaper-agent beat --bpm 120 --bars 2
  Send a raw command:    reaper-agent dispatch set_tempo '{"bpm": 120}'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default ~/.config/reaper-agent/config.yaml)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reaper-agent v%s\n", version)
		},
	})

	rootCmd.AddCommand(samplesCmd(&configPath))
	rootCmd.AddCommand(beatCmd(&configPath))
	rootCmd.AddCommand(dispatchCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("❌ ERROR: %v", err)
	}
}

// loadRuntime loads .env, the config file, and Sentry. The returned cleanup
// flushes buffered Sentry events and must run before exit.
func loadRuntime(configPath string) (*config.Config, func(), error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: Could not load .env file: %v", err)
		log.Println("   Continuing with environment variables...")
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	cleanup := func() {}
	if cfg.SentryDSN != "" {
		if initErr := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		}); initErr != nil {
			log.Printf("⚠️  Sentry init failed: %v", initErr)
		} else {
			cleanup = func() { sentry.Flush(sentryFlushTimeout) }
			log.Printf("📊 Sentry tracing enabled")
		}
	}

	return cfg, cleanup, nil
}

// newBridge builds the command bridge from config
func newBridge(cfg *config.Config) *bridge.Bridge {
	return bridge.New(cfg.CommandPath(), cfg.AckPath(),
		bridge.WithTimeout(cfg.Bridge.Timeout()),
		bridge.WithPollInterval(cfg.Bridge.PollInterval()),
	)
}

// runREPL runs the interactive conversation loop
func runREPL(ctx context.Context, configPath string) error {
	cfg, cleanup, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.OpenAIAPIKey == "" && cfg.GeminiAPIKey == "" {
		return fmt.Errorf("no API key configured: set OPENAI_API_KEY or GEMINI_API_KEY")
	}

	tools, err := llm.LoadToolSchemas(cfg.ToolsPath)
	if err != nil {
		return err
	}

	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, err := factory.GetProvider(ctx, cfg.Model, cfg.Provider)
	if err != nil {
		return err
	}

	library := samples.NewLibrary(cfg.SoundsDir)
	runner := coordination.NewToolRunner(newBridge(cfg), library)

	agent, err := assistant.NewAssistantAgent(cfg, provider, runner, tools)
	if err != nil {
		return err
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("🎛️  LLM REAPER Agent CLI")
	fmt.Println("Type 'quit' to exit.")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	var history []llm.Message

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		user := strings.TrimSpace(scanner.Text())
		if user == "" {
			continue
		}
		if lower := strings.ToLower(user); lower == "quit" || lower == "exit" {
			break
		}

		newHistory, reply, err := agent.RunTurn(ctx, history, user)
		history = newHistory
		if err != nil {
			log.Printf("❌ Turn failed: %v", err)
			continue
		}

		if trimmed := strings.TrimSpace(reply); trimmed != "" {
			fmt.Println("\n" + trimmed + "\n")
		}
	}

	return scanner.Err()
}

// samplesCmd lists the local sample library without going through the model
func samplesCmd(configPath *string) *cobra.Command {
	var category string
	var query string
	var limit int

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List samples from the local library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			library := samples.NewLibrary(cfg.SoundsDir)
			found, err := library.List(samples.Category(category), query, limit)
			if err != nil {
				return err
			}

			if len(found) == 0 {
				fmt.Println("No samples found.")
				return nil
			}
			for _, s := range found {
				fmt.Printf("%-8s %s\n", s.Category, s.Path)
			}
			fmt.Printf("\n%d sample(s)\n", len(found))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "all", "category to list (kicks, claps, hats, misc, all)")
	cmd.Flags().StringVar(&query, "query", "", "case-insensitive name filter")
	cmd.Flags().IntVar(&limit, "limit", samples.DefaultListLimit, "maximum results")

	return cmd
}

// beatCmd adds a basic beat without going through the model
func beatCmd(configPath *string) *cobra.Command {
	var bpm float64
	var track int
	var bars int
	var kickQuery, clapQuery, hatQuery string

	cmd := &cobra.Command{
		Use:   "beat",
		Short: "Add a basic beat directly over the bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			library := samples.NewLibrary(cfg.SoundsDir)
			agent := beat.NewBeatAgent(newBridge(cfg), library)

			result, err := agent.AddBasicBeat(cmd.Context(), beat.Params{
				BPM:       bpm,
				Track:     track,
				Bars:      bars,
				KickQuery: kickQuery,
				ClapQuery: clapQuery,
				HatQuery:  hatQuery,
			})
			if err != nil {
				return err
			}

			fmt.Println(result.Message)
			return nil
		},
	}

	cmd.Flags().Float64Var(&bpm, "bpm", 120, "tempo in BPM")
	cmd.Flags().IntVar(&track, "track", 0, "0-based track index")
	cmd.Flags().IntVar(&bars, "bars", 1, "bars to fill")
	cmd.Flags().StringVar(&kickQuery, "kick", "", "kick sample name filter")
	cmd.Flags().StringVar(&clapQuery, "clap", "", "clap sample name filter")
	cmd.Flags().StringVar(&hatQuery, "hat", "", "hat sample name filter")

	return cmd
}

// dispatchCmd sends one raw command over the bridge and prints the ack,
// useful for exercising the REAPER side without a model in the loop
func dispatchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch <type> [payload-json]",
		Short: "Send one raw command over the bridge and print the ack",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			payload := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
					return fmt.Errorf("parse payload: %w", err)
				}
			}

			ack, err := newBridge(cfg).Dispatch(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(&ack, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	return cmd
}
