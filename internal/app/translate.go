package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"horse.fit/anubad/internal/cli"
	"horse.fit/anubad/internal/db"
	"horse.fit/anubad/internal/globaltime"
	"horse.fit/anubad/internal/langdetect"
	"horse.fit/anubad/internal/translation"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
)

type translateOptions struct {
	envLoader *cli.EnvLoader
	text      string
	userID    int64
	format    string
	timeout   time.Duration
}

func runTranslate(args []string) int {
	opts, err := parseTranslateFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := loadRuntime(opts.envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	primaryCfg, fallbackCfg := cfg.ProviderConfigs()
	orchestrator, err := translation.NewOrchestratorFromConfig(ctx, primaryCfg, fallbackCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure translation providers: %v\n", err)
		return 1
	}
	defer orchestrator.Close()

	result, err := orchestrator.Translate(ctx, opts.text)
	if err != nil {
		var failed *translation.BothProvidersFailedError
		switch {
		case translation.IsValidationError(err):
			fmt.Fprintln(os.Stderr, "Please enter some text to translate.")
			return 2
		case errors.As(err, &failed):
			for _, attempt := range failed.Attempts {
				fmt.Fprintf(os.Stderr, "%s (%s) failed: %s\n", attempt.Provider, attempt.ProviderName, attempt.Reason)
			}
			fmt.Fprintln(os.Stderr, "Translation services are currently unavailable. Please try again later.")
			return 1
		default:
			fmt.Fprintf(os.Stderr, "Translation failed: %v\n", err)
			return 1
		}
	}

	if opts.userID > 0 {
		pool, err := connectPool(cfg, logger, 10*time.Second)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer pool.Close()

		if _, err := pool.InsertTranslation(ctx, db.InsertTranslationParams{
			UserID:         opts.userID,
			OriginalText:   result.SourceText,
			TranslatedText: result.TranslatedText,
			SourceLang:     translation.SourceLanguage,
			TargetLang:     translation.TargetLanguage,
			DetectedLang:   langdetect.DetectISO6391(result.SourceText),
			ProviderRole:   string(result.ProviderUsed),
			ProviderName:   result.ProviderName,
			CreatedAt:      globaltime.UTC(),
		}); err != nil {
			logger.Error().Err(err).Int64("user_id", opts.userID).Msg("record translation history failed")
			fmt.Fprintf(os.Stderr, "Warning: translation was not saved to history: %v\n", err)
		}
	}

	if err := writeTranslateResult(os.Stdout, result, opts.format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
		return 1
	}
	return 0
}

func parseTranslateFlags(args []string, output io.Writer) (translateOptions, error) {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: anubad translate [flags] \"<english text>\"")
		fs.PrintDefaults()
	}

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	userID := fs.Int64("user", 0, "Record the translation in this user's history")
	format := fs.String("format", outputFormatText, "Output format: text or json")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		return translateOptions{}, err
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return translateOptions{}, fmt.Errorf("translate requires the text to translate")
	}
	if *userID < 0 {
		return translateOptions{}, fmt.Errorf("--user must be a positive user id")
	}
	normalizedFormat := strings.ToLower(strings.TrimSpace(*format))
	if normalizedFormat != outputFormatText && normalizedFormat != outputFormatJSON {
		return translateOptions{}, fmt.Errorf("--format must be text or json")
	}
	if *timeout <= 0 {
		return translateOptions{}, fmt.Errorf("--timeout must be positive")
	}

	return translateOptions{
		envLoader: envLoader,
		text:      text,
		userID:    *userID,
		format:    normalizedFormat,
		timeout:   *timeout,
	}, nil
}

func writeTranslateResult(w io.Writer, result translation.Result, format string) error {
	if format == outputFormatJSON {
		return writeJSON(w, result)
	}
	_, err := fmt.Fprintf(w, "%s\n\n[%s: %s]\n", result.TranslatedText, result.ProviderUsed, result.ProviderName)
	return err
}
