// Command evaluate runs one resume against one job description from the
// command line and prints the report.
//
//	evaluate -resume cv.pdf -jd jd.txt [-format text|json|yaml]
//	evaluate -validate evaluation.json
//	evaluate -hash-api-key <key>
//
// Exit status is 1 on errors and 2 when the model output fails validation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ai "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/ai"
	httpserver "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/textextractor/local"
	tikaext "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/app"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/report"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/usecase"
)

const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
)

type options struct {
	resume     string
	resumeText string
	jd         string
	jdText     string
	format     string
	validate   string
	hashKey    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.resume, "resume", "", "resume file (.txt, .md, .pdf, .docx)")
	fs.StringVar(&o.resumeText, "resume-text", "", "resume as pasted text, used when -resume is empty")
	fs.StringVar(&o.jd, "jd", "", "job description file (.txt, .md, .pdf, .docx)")
	fs.StringVar(&o.jdText, "jd-text", "", "job description as pasted text, used when -jd is empty")
	fs.StringVar(&o.format, "format", report.FormatText, "output format: text, json or yaml")
	fs.StringVar(&o.validate, "validate", "", "validate a stored evaluation JSON file without calling the model")
	fs.StringVar(&o.hashKey, "hash-api-key", "", "print the API_KEY_HASH value for the given key and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	switch {
	case o.hashKey != "":
		hash, err := httpserver.HashAPIKey(o.hashKey, httpserver.DefaultArgon2Params)
		if err != nil {
			fmt.Fprintf(stderr, "hash api key: %v\n", err)
			return exitError
		}
		fmt.Fprintln(stdout, hash)
		return exitOK
	case o.validate != "":
		return validateFile(o.validate, o.format, stdout, stderr)
	default:
		return evaluate(ctx, o, stdout, stderr)
	}
}

func validateFile(path, format string, stdout, stderr io.Writer) int {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "read %s: %v\n", path, err)
		return exitError
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		fmt.Fprintf(stderr, "decode %s: %v\n", path, err)
		return exitError
	}
	ok, msg := domain.ValidateDocument(doc)
	if !ok {
		fmt.Fprintf(stderr, "invalid: %s\n", msg)
		return exitInvalid
	}
	return render(domain.Document(doc.(map[string]any)), format, stdout, stderr)
}

func evaluate(ctx context.Context, o options, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	logger := observability.NewLogger(cfg, stderr)

	resume, err := source(o.resume, o.resumeText)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	jd, err := source(o.jd, o.jdText)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	var remote domain.TextExtractor
	if cfg.TikaURL != "" {
		remote = tikaext.New(cfg.TikaURL, cfg.TikaTimeout)
	}
	req, err := usecase.NewInputService(local.New(remote)).BuildRequest(ctx, resume, jd)
	if err != nil {
		fmt.Fprintf(stderr, "input: %v\n", err)
		return exitError
	}

	client, err := app.NewAIClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "ai client: %v\n", err)
		return exitError
	}
	svc := usecase.NewEvaluateService(client, ai.NewResponseCleaner())
	doc, err := svc.Evaluate(ctx, req)
	if err != nil {
		logger.Error("evaluation failed", slog.Any("error", err))
		fmt.Fprintf(stderr, "evaluate: %v\n", err)
		return exitError
	}
	if ok, msg := svc.ValidateVerdict(doc); !ok {
		fmt.Fprintf(stderr, "invalid: %s\n", msg)
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return exitInvalid
	}
	return render(doc, o.format, stdout, stderr)
}

func render(doc domain.Document, format string, stdout, stderr io.Writer) int {
	ev, err := domain.DecodeEvaluation(doc)
	if err != nil {
		fmt.Fprintf(stderr, "decode evaluation: %v\n", err)
		return exitError
	}
	if err := report.Render(stdout, ev, format); err != nil {
		fmt.Fprintf(stderr, "render: %v\n", err)
		return exitError
	}
	return exitOK
}

func source(path, pasted string) (usecase.InputSource, error) {
	src := usecase.InputSource{Pasted: pasted}
	if path == "" {
		return src, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return src, fmt.Errorf("read %s: %w", path, err)
	}
	src.FileName = filepath.Base(path)
	src.Data = b
	return src, nil
}
