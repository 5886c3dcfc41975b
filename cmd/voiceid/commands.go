package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/voiceid/config"
	"github.com/kbukum/voiceid/diarization"
	"github.com/kbukum/voiceid/embedding"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/version"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "voiceid",
		Short:        "Speaker identification over transcribed audio",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: cmd/voiceid/config.yml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", ".env file to load")

	root.AddCommand(newRunCmd(flags), newEnrollCmd(flags), newSpeakersCmd(flags), newVersionCmd())
	return root
}

func loadConfig(flags *rootFlags) (*AppConfig, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	// Keys absent from the file keep these values, so an unset window
	// stays at its default while an explicit zero is honored.
	cfg := &AppConfig{Diarization: diarization.DefaultOptions()}
	if err := config.LoadConfig("voiceid", cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runTask loads config, starts the app and runs fn with the wired services.
func runTask(cmd *cobra.Command, flags *rootFlags, configure func(*AppConfig), fn func(ctx context.Context, svc *services) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if configure != nil {
		configure(cfg)
	}
	svc := &services{}
	app, err := newApp(cfg, svc)
	if err != nil {
		return err
	}
	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		req      diarization.DiarizationRequest
		strategy string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "run <audio>",
		Short: "Label the speakers of an audio range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.AudioPath = args[0]
			configure := func(cfg *AppConfig) {
				if strategy != "" {
					cfg.Diarization.Strategy = strategy
				}
			}
			return runTask(cmd, flags, configure, func(ctx context.Context, svc *services) error {
				resp, err := svc.engine.Diarize(ctx, req)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, resp)
			})
		},
	}
	cmd.Flags().Float64Var(&req.Start, "start", 0, "range start in seconds")
	cmd.Flags().Float64Var(&req.End, "end", 0, "range end in seconds (required)")
	cmd.Flags().StringVar(&req.SourceID, "source-id", "", "cache identity of the recording (default: audio base name)")
	cmd.Flags().StringVar(&req.Language, "language", "", "transcription language")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override diarization.strategy")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON result to this file instead of stdout")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEnrollCmd(flags *rootFlags) *cobra.Command {
	var start, end float64
	cmd := &cobra.Command{
		Use:   "enroll <name> <audio>",
		Short: "Add a voice sample of a known speaker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, audio := args[0], args[1]
			return runTask(cmd, flags, nil, func(ctx context.Context, svc *services) error {
				vec, err := svc.embedder.Execute(ctx, embedding.Request{AudioPath: audio, Start: start, End: end})
				if err != nil {
					return fmt.Errorf("embed sample: %w", err)
				}
				if err := svc.speakers.AddEmbedding(ctx, name, vec); err != nil {
					return err
				}
				count, err := svc.speakers.EmbeddingCount(ctx)
				if err != nil {
					return err
				}
				logger.Info("Speaker enrolled", map[string]interface{}{
					"speaker":    name,
					"dimension":  len(vec),
					"embeddings": count,
				})
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&start, "start", 0, "sample start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "sample end in seconds (required)")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSpeakersCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "speakers",
		Short: "List known speakers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTask(cmd, flags, nil, func(ctx context.Context, svc *services) error {
				list, err := svc.speakers.Speakers(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tEMBEDDINGS")
				for _, s := range list {
					fmt.Fprintf(w, "%s\t%d\n", s.Name, len(s.Embeddings))
				}
				return w.Flush()
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return writeOutput(cmd.OutOrStdout(), "", info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "voiceid", info)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeOutput(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
