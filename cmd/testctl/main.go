package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/analyze"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/config"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/deploy"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/generator"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/logging"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/notify"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/render"
)

const defaultPromptFile = "prompts/test_analyzer_prompt.md"

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var run func(ctx context.Context, cfg *config.App, args []string) error
	switch os.Args[1] {
	case "generate":
		run = runGenerate
	case "deploy":
		run = runDeploy
	case "notify":
		run = runNotify
	case "analyze":
		run = runAnalyze
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err := run(ctx, cfg, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: testctl <command> [flags]

Commands:
  generate <config.json>   Generate test variants from a test configuration
  deploy                   Deploy rendered variants to Google Apps Script
  notify <en> <rs> <rcpt>  Send bilingual email invitations
  analyze                  Check a rendered variant for topic redundancy
`)
}

func runGenerate(ctx context.Context, cfg *config.App, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		language  = fs.String("language", "", "Override language from config (en or rs)")
		variants  = fs.Int("variants", -1, "Override number of test variants from config")
		outputDir = fs.String("output-dir", "", "Override output directory from config")
		poolRoot  = fs.String("pool-dir", cfg.Generator.PoolRoot, "Question pool root directory")
		seed      = fs.Int64("seed", cfg.Generator.Seed, "Random seed (0 means non-reproducible)")
		listFiles = fs.Bool("list-files", false, "List existing artifacts instead of generating")
		verbose   = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("generate requires exactly one config file argument")
	}

	logger := logging.New(cfg.Name, cfg.Env, *verbose)
	ctx = logging.IntoContext(ctx, logger)

	testCfg, err := config.LoadTestConfig(fs.Arg(0))
	if err != nil {
		return err
	}
	if *language != "" {
		if *language != string(pool.LanguageEN) && *language != string(pool.LanguageRS) {
			return fmt.Errorf("unsupported language override %q (use en or rs)", *language)
		}
		testCfg.Language = *language
	}
	if *variants >= 0 {
		testCfg.Variants = *variants
	}
	if *outputDir != "" {
		testCfg.OutputDir = *outputDir
	}

	if *listFiles {
		return listArtifacts(testCfg.OutputDir, pool.Language(*language), testCfg.Name)
	}

	loader := pool.NewLoader(*poolRoot, logger)
	batch := generator.NewBatch(testCfg, loader, *seed, logger)
	renderer := render.New(render.Options{
		Name:         testCfg.Name,
		ResultsSheet: testCfg.ResultsSheet,
	}, logger)

	logger.Info().
		Str("test", testCfg.Name).
		Str("language", testCfg.Language).
		Int("variants", testCfg.Variants).
		Str("run_id", batch.RunID()).
		Msg("starting generation batch")

	variantsOut, genErr := batch.Generate(ctx)

	// Completed variants are kept even when the batch fails partway.
	date := time.Now()
	written := 0
	for _, v := range variantsOut {
		if _, err := renderer.WriteVariant(v, testCfg.OutputDir, date); err != nil {
			return err
		}
		written++
	}

	if genErr != nil {
		return fmt.Errorf("generated %d/%d variants: %w",
			written, testCfg.Variants*len(testCfg.Languages()), genErr)
	}
	logger.Info().Int("files", written).Str("dir", testCfg.OutputDir).Msg("generation complete")
	return nil
}

func runDeploy(ctx context.Context, cfg *config.App, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	var (
		language  = fs.String("language", "", "Deploy only one language (en or rs)")
		outputDir = fs.String("output-dir", "/tmp", "Directory holding rendered artifacts")
		listFiles = fs.Bool("list-files", false, "List deployable artifacts without deploying")
		verbose   = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := logging.New(cfg.Name, cfg.Env, *verbose)

	if *listFiles {
		return listArtifacts(*outputDir, pool.Language(*language), "")
	}

	artifacts, err := deploy.ListArtifacts(*outputDir, pool.Language(*language), "")
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts found in %s", *outputDir)
	}

	client, err := deploy.NewClient(ctx, deploy.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		BaseURL:         cfg.Google.ScriptAPIBase,
		Timeout:         cfg.Google.HTTPTimeout,
	}, logger)
	if err != nil {
		return err
	}

	urlsByLang := map[pool.Language][]string{}
	for _, path := range artifacts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("deploy canceled: %w", err)
		}
		d, err := client.Deploy(ctx, path)
		if err != nil {
			return err
		}
		lang := deploy.LanguageOf(path)
		urlsByLang[lang] = append(urlsByLang[lang], d.URL)
	}

	for lang, urls := range urlsByLang {
		listPath := filepath.Join(*outputDir, fmt.Sprintf("%s_urls.txt", lang))
		if err := deploy.WriteURLList(listPath, urls); err != nil {
			return err
		}
		logger.Info().Str("path", listPath).Int("urls", len(urls)).Msg("url list written")
	}
	return nil
}

func runNotify(ctx context.Context, cfg *config.App, args []string) error {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	var (
		testName = fs.String("name", "", "Test name used in the email subject")
		verbose  = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("notify requires <en_urls> <rs_urls> <recipients> file arguments")
	}

	logger := logging.New(cfg.Name, cfg.Env, *verbose)

	enURLs, err := notify.ReadLines(fs.Arg(0))
	if err != nil {
		return err
	}
	rsURLs, err := notify.ReadLines(fs.Arg(1))
	if err != nil {
		return err
	}
	recipients, err := notify.ReadLines(fs.Arg(2))
	if err != nil {
		return err
	}

	invites, err := notify.AssignInvites(enURLs, rsURLs, recipients)
	if err != nil {
		return err
	}

	service := notify.NewService(notify.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.FromEmail,
		TestName:  *testName,
	}, logger)

	if err := service.SendInvites(ctx, invites); err != nil {
		return err
	}
	logger.Info().Int("recipients", len(invites)).Msg("all invites sent")
	return nil
}

func runAnalyze(ctx context.Context, cfg *config.App, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var (
		testFile      = fs.String("test-file", "", "Path to a rendered .gs artifact")
		materialsPath = fs.String("materials-path", "", "Directory containing course materials (markdown)")
		model         = fs.String("model", cfg.OpenAI.Model, "Model to use for analysis")
		promptFile    = fs.String("prompt-file", defaultPromptFile, "Path to the analyzer system prompt")
		verbose       = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *testFile == "" || *materialsPath == "" {
		return fmt.Errorf("analyze requires -test-file and -materials-path")
	}

	logger := logging.New(cfg.Name, cfg.Env, *verbose)

	prompt, err := os.ReadFile(*promptFile)
	if err != nil {
		return fmt.Errorf("read prompt file: %w", err)
	}

	questions, err := analyze.ParseScript(*testFile)
	if err != nil {
		return err
	}
	logger.Info().Int("questions", len(questions)).Str("file", *testFile).Msg("questions parsed")

	materials, err := analyze.LoadMaterials(*materialsPath, logger)
	if err != nil {
		return err
	}
	if materials == "" {
		logger.Warn().Msg("no course materials loaded; analysis may be limited")
	}

	client := analyze.NewClient(analyze.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   *model,
		Timeout: cfg.OpenAI.HTTPTimeout,
	}, logger)

	findings, err := client.Analyze(ctx, string(prompt), questions, materials)
	if err != nil {
		return err
	}

	fmt.Printf("Test file: %s\nQuestions analyzed: %d\n\n%s\n", *testFile, len(questions), findings)
	return nil
}

func listArtifacts(outputDir string, language pool.Language, testName string) error {
	paths, err := deploy.ListArtifacts(outputDir, language, testName)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Printf("No test files found in %s\n", outputDir)
		return nil
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d bytes)\n", p, info.Size())
	}
	return nil
}
