// Command execution for CLI commands.
//
// Information Hiding:
// - Component wiring (provider, storage, browser, server) hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/richinex/webpilot/browser"
	"github.com/richinex/webpilot/chat"
	"github.com/richinex/webpilot/config"
	"github.com/richinex/webpilot/internal/jsonpath"
	"github.com/richinex/webpilot/llm"
	"github.com/richinex/webpilot/offload"
	"github.com/richinex/webpilot/server"
	"github.com/richinex/webpilot/storage"
)

// systemPrompt steers the model toward driving the browser tools.
const systemPrompt = `You are a web browsing assistant. You control a real browser
through the tools available to you. Navigate, read, and interact with pages on the
user's behalf, and describe what you find. When a tool returns a URL in place of
an image, pass that URL on to the user instead of describing raw data.`

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{Provider: "anthropic"}
}

// Serve wires every component together and runs the HTTP server until
// ctx is cancelled.
func Serve(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	uploader, ledger, filesDir, cleanup, err := createUploader(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	client, err := browser.Dial(ctx, settings.Browser.ServiceURL)
	if err != nil {
		return err
	}
	defer client.Close()

	infos, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list browser tools: %w", err)
	}
	tools := browser.ToolDefinitions(infos)
	fmt.Printf("Connected to browser service (%d tools)\n", len(tools))

	bridge := chat.NewBridge(client, uploader)
	session := chat.NewSession(provider, bridge, tools, systemPrompt)

	srv := server.New(server.Config{
		Addr:      settings.Server.Addr,
		RateRPS:   settings.Server.RateRPS,
		RateBurst: settings.Server.RateBurst,
		FilesDir:  filesDir,
	}, session, client, uploader, ledger)

	fmt.Printf("Serving with %s (%s) on %s\n", provider.Name(), provider.Model(), settings.Server.Addr)
	return srv.ListenAndServe(ctx)
}

// Screenshot captures the current browser page and prints a retrieval
// URL, falling back to writing the raw image when storage is down.
func Screenshot(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	uploader, _, _, cleanup, err := createUploader(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	client, err := browser.Dial(ctx, settings.Browser.ServiceURL)
	if err != nil {
		return err
	}
	defer client.Close()

	uri, err := client.Screenshot(ctx)
	if err != nil {
		return err
	}

	pipeline := offload.NewPipeline(uploader, offload.ConversationWidth)
	rewritten, results, err := pipeline.Offload(ctx, map[string]interface{}{"screenshot": uri})
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Succeeded() {
			fmt.Fprintf(os.Stderr, "Warning: upload failed (%v); printing data URI\n", r.Err)
		}
	}

	if m, ok := rewritten.(map[string]interface{}); ok {
		if v, ok := m["screenshot"].(string); ok {
			fmt.Println(v)
			return nil
		}
	}
	fmt.Println(uri)
	return nil
}

// Uploads prints recent upload ledger entries.
func Uploads(ctx context.Context, limit int, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	if settings.Storage.LedgerPath == "" {
		return fmt.Errorf("upload ledger is disabled (STORAGE_LEDGER_PATH is empty)")
	}

	ledger, err := storage.OpenLedger(settings.Storage.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	entries, err := ledger.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No uploads recorded.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %s  %d bytes  expires %s\n", e.Key, e.MIMEType, e.Size, e.Expiry.Format("2006-01-02 15:04"))
		if opts.Verbose {
			fmt.Printf("  %s\n", e.URL)
		}
	}
	return nil
}

// BulkUpload uploads local files at bulk width and prints their URLs.
func BulkUpload(ctx context.Context, paths []string, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	uploader, _, _, cleanup, err := createUploader(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	descriptors := make([]offload.PayloadDescriptor, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		mimeType := mime.TypeByExtension(filepath.Ext(name))
		// The file path doubles as the result correlation key.
		descriptors = append(descriptors, offload.PayloadDescriptor{
			Path:     jsonpath.Path{jsonpath.Key(path)},
			MIMEType: mimeType,
			Data:     data,
			Filename: name,
		})
	}

	scheduler := offload.NewScheduler(uploader, offload.BulkWidth)
	results, err := scheduler.Schedule(ctx, descriptors)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Succeeded() {
			fmt.Printf("%s -> %s\n", r.Path, r.URL)
		} else {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

// Tools prints the browser service's tool catalog.
func Tools(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	client, err := browser.Dial(ctx, settings.Browser.ServiceURL)
	if err != nil {
		return err
	}
	defer client.Close()

	infos, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		fmt.Printf("  %s", info.Name)
		if info.Description != nil && *info.Description != "" {
			fmt.Printf(" - %s", *info.Description)
		}
		fmt.Println()
		if opts.Verbose && len(info.InputSchema) > 0 {
			fmt.Printf("    schema: %s\n", info.InputSchema)
		}
	}
	fmt.Printf("\n%d tools available\n", len(infos))
	return nil
}

// createProvider builds the configured LLM provider.
func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return llm.NewProviderBuilder(providerType).Options(llm.Options{
		Model:            settings.LLM.Model,
		MaxTokens:        settings.LLM.MaxTokens,
		Temperature:      settings.LLM.Temperature,
		TopP:             settings.LLM.TopP,
		FrequencyPenalty: settings.LLM.FrequencyPenalty,
	}).APIKey(apiKey)
}

// createUploader builds the configured storage backend, optionally
// wrapped with the audit ledger. filesDir is non-empty only for the fs
// backend, where the server must serve stored payloads itself.
func createUploader(settings config.Settings) (uploader storage.Uploader, ledger *storage.Ledger, filesDir string, cleanup func(), err error) {
	switch settings.Storage.Backend {
	case "minio":
		uploader, err = storage.NewMinioUploader(context.Background(), storage.MinioConfig{
			Endpoint:  settings.Storage.MinioEndpoint,
			AccessKey: settings.Storage.MinioAccessKey,
			SecretKey: settings.Storage.MinioSecretKey,
			Bucket:    settings.Storage.MinioBucket,
			UseSSL:    settings.Storage.MinioUseSSL,
		})
		if err != nil {
			return nil, nil, "", nil, err
		}
	default:
		uploader, err = storage.NewFSUploader(settings.Storage.FSDir, settings.Storage.FSBaseURL)
		if err != nil {
			return nil, nil, "", nil, err
		}
		filesDir = settings.Storage.FSDir
	}

	if settings.Storage.LedgerPath != "" {
		ledger, err = storage.OpenLedger(settings.Storage.LedgerPath)
		if err != nil {
			return nil, nil, "", nil, err
		}
		uploader = storage.WithLedger(uploader, ledger)
		cleanup = func() { ledger.Close() }
	}

	return uploader, ledger, filesDir, cleanup, nil
}
