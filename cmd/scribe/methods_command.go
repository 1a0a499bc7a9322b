package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/media"
)

func newMethodsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List recognition methods and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			transcoder := media.NewTranscoder(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, logger)
			segmenter := media.NewSegmenter(transcoder, logger)
			registry := buildRegistry(cfg, transcoder, segmenter, logger)

			rows := make([][]string, 0, len(registry.Methods()))
			for _, method := range registry.Methods() {
				provider, ok := registry.Lookup(method)
				if !ok {
					continue
				}
				status := provider.Probe()
				rows = append(rows, []string{
					string(method),
					provider.DisplayName(),
					yesNo(status.Available),
					yesNo(provider.SupportsTimestamps()),
					status.Detail,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Method", "Provider", "Available", "Timestamps", "Detail"},
				rows,
				nil,
			))
			return nil
		},
	}
}
