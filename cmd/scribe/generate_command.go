package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/recognition"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		outputFlag     string
		methodFlag     string
		languageFlag   string
		modelFlag      string
		formatFlag     string
		timeoutFlag    int
		noFallbackFlag bool
		fallbackFlag   string
	)

	cmd := &cobra.Command{
		Use:   "generate <media-file>",
		Short: "Generate a subtitle file for a media file",
		Long: `Generate transcribes the audio track of a media file and writes a subtitle
file next to it (or to --output). Preference precedence is flags, then stored
settings, then the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			recCfg := recognitionDefaults(cfg)

			store, err := ctx.openSettings()
			if err != nil {
				return err
			}
			recCfg, applyErr := store.Apply(cmd.Context(), recCfg)
			closeErr := store.Close()
			if applyErr != nil {
				return fmt.Errorf("apply stored settings: %w", applyErr)
			}
			if closeErr != nil {
				return fmt.Errorf("close settings store: %w", closeErr)
			}

			if cmd.Flags().Changed("method") {
				method, err := recognition.ParseMethod(methodFlag)
				if err != nil {
					return err
				}
				recCfg.Method = method
			}
			if cmd.Flags().Changed("language") {
				lang, err := recognition.ParseLanguage(languageFlag)
				if err != nil {
					return err
				}
				recCfg.Language = lang
			}
			if cmd.Flags().Changed("model") {
				recCfg.Model = modelFlag
			}
			if cmd.Flags().Changed("format") {
				format, err := recognition.ParseOutputFormat(formatFlag)
				if err != nil {
					return err
				}
				recCfg.OutputFormat = format
			}
			if cmd.Flags().Changed("timeout") {
				recCfg.TimeoutSeconds = timeoutFlag
			}
			if noFallbackFlag {
				recCfg.EnableFallback = false
			}
			if cmd.Flags().Changed("fallback-method") {
				method, err := recognition.ParseMethod(fallbackFlag)
				if err != nil {
					return err
				}
				recCfg.FallbackMethod = method
			}

			recognizer, err := ctx.buildRecognizer()
			if err != nil {
				return err
			}

			outputPath, err := recognizer.GenerateSubtitle(cmd.Context(), args[0], outputFlag, recCfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subtitle written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Subtitle output path (defaults to the media path with the format extension)")
	cmd.Flags().StringVarP(&methodFlag, "method", "m", "", "Recognition method")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Audio language code, or auto")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model name for the selected method")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: srt, vtt, txt, or json")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Recognition timeout in seconds (0 waits indefinitely)")
	cmd.Flags().BoolVar(&noFallbackFlag, "no-fallback", false, "Disable the fallback method on failure")
	cmd.Flags().StringVar(&fallbackFlag, "fallback-method", "", "Method to retry with when the primary fails")

	return cmd
}
