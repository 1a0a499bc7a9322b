package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"scribe/internal/recognition"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "languages",
		Short:       "List supported language codes",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(recognition.Languages()))
			for _, code := range recognition.Languages() {
				rows = append(rows, []string{string(code), languageName(code)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Code", "Language"},
				rows,
				nil,
			))
			return nil
		},
	}
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List supported subtitle output formats",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(recognition.OutputFormats()))
			for _, format := range recognition.OutputFormats() {
				rows = append(rows, []string{string(format), formatDescription(format)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Format", "Description"},
				rows,
				nil,
			))
			return nil
		},
	}
}

func languageName(code recognition.Language) string {
	if code == recognition.LanguageAuto {
		return "Automatic detection"
	}
	tag, err := language.Parse(string(code))
	if err != nil {
		return string(code)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return string(code)
	}
	return name
}

func formatDescription(format recognition.OutputFormat) string {
	switch format {
	case recognition.FormatSRT:
		return "SubRip subtitles"
	case recognition.FormatVTT:
		return "WebVTT subtitles"
	case recognition.FormatTXT:
		return "Plain transcript text"
	case recognition.FormatJSON:
		return "Timed segments as JSON"
	default:
		return ""
	}
}
