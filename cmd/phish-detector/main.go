package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/config"
	"github.com/ScottHolden/FlyPhishing/internal/core"
	"github.com/ScottHolden/FlyPhishing/internal/factory"
	"github.com/ScottHolden/FlyPhishing/internal/logging"
	"github.com/ScottHolden/FlyPhishing/internal/schema"
	"github.com/ScottHolden/FlyPhishing/internal/whitelist"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, azure, bedrock, gemini)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for model responses")
	temperature = flag.Float64("temperature", 0.1, "Temperature for model generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for model generation")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o", "OpenAI model name")

	// Azure OpenAI flags
	azureAPIKey     = flag.String("azure-api-key", "", "API key for Azure OpenAI")
	azureEndpoint   = flag.String("azure-endpoint", "", "Azure OpenAI endpoint")
	azureDeployment = flag.String("azure-deployment", "", "Azure OpenAI deployment name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-sonnet-20240229-v1:0", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-1.5-pro", "Gemini model name")

	// Engine flags
	maxRounds     = flag.Int("max-rounds", 10, "Maximum conversation rounds per run")
	maxBodySize   = flag.Int("max-body-size", 16384, "Maximum email body size to send to the model")
	staticVerdict = flag.String("static-verdict", "URL is malicious", "Verdict returned by the static URL scanner")

	// Detection flags
	whitelistDomains = flag.String("whitelist", "", "Comma-separated list of whitelisted sender domains")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Initialize chat client
	llmFactory := factory.NewLLMFactory(cfg, logger)
	chatClient, err := llmFactory.CreateChatClient()
	if err != nil {
		logger.Fatal("Failed to create chat client", zap.Error(err))
	}

	// Initialize URL scanner
	scannerFactory := factory.NewScannerFactory(cfg, logger)
	urlScanner, err := scannerFactory.CreateURLScanner()
	if err != nil {
		logger.Fatal("Failed to create URL scanner", zap.Error(err))
	}

	// Initialize verdict codec and checkUrl tool; the one-shot CLI does
	// not carry a cross-run cache
	codec, err := schema.NewVerdictCodec()
	if err != nil {
		logger.Fatal("Failed to build verdict codec", zap.Error(err))
	}
	toolParams, err := schema.Generate[core.CheckURLArgs](false)
	if err != nil {
		logger.Fatal("Failed to build tool schema", zap.Error(err))
	}
	checkURL := core.NewCheckURLTool(urlScanner, nil, 0, toolParams, logger)
	registry := core.NewToolRegistry(checkURL)

	engineCfg, err := cfg.GetEngine()
	if err != nil {
		logger.Fatal("Invalid engine configuration", zap.Error(err))
	}
	engine := core.NewEngine(
		chatClient,
		registry,
		codec,
		logger,
		engineCfg.SystemPrompt,
		engineCfg.MaxRounds,
		engineCfg.RoundTimeout,
	)

	// Parse whitelisted domains
	var whitelistedDomains []string
	if *whitelistDomains != "" {
		whitelistedDomains = strings.Split(*whitelistDomains, ",")
		for i, domain := range whitelistedDomains {
			whitelistedDomains[i] = strings.TrimSpace(domain)
		}
	} else {
		whitelistedDomains = cfg.GetStringSlice("detection.whitelisted_domains")
	}
	if len(whitelistedDomains) > 0 {
		logger.Info("Using whitelisted domains", zap.Strings("domains", whitelistedDomains))
	}
	whitelistChecker := whitelist.NewChecker(whitelistedDomains, logger)

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	to := msg.Header.Get("To")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}
	body := string(bodyBytes)

	email := &core.Email{
		From:    from,
		To:      strings.Split(to, ","),
		Subject: subject,
		Body:    body,
		Headers: make(map[string][]string),
	}
	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("To: %s\n", to)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))
	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))

	startTime := time.Now()

	if whitelistChecker.IsWhitelisted(from) {
		fmt.Printf("\n=== Results ===\n")
		fmt.Printf("Suspicious: false (sender domain is whitelisted)\n")
		fmt.Printf("Model used: whitelist\n")
		fmt.Printf("Processing time: %v\n", time.Since(startTime))
		return
	}

	report, err := engine.Detect(context.Background(), email)
	if err != nil {
		logger.Fatal("Failed to analyze email", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Suspicious: %t\n", report.Verdict.Suspicious)
	fmt.Printf("Summary: %s\n", report.Verdict.ShortDescription)
	if len(report.Verdict.DetectedItems) > 0 {
		fmt.Printf("Detected items:\n")
		for _, item := range report.Verdict.DetectedItems {
			fmt.Printf("  - %s: %s\n", item.Title, item.Description)
			if *verbose && item.Reasoning != "" {
				fmt.Printf("    Reasoning: %s\n", item.Reasoning)
			}
		}
	}
	if report.URLVerdicts.Len() > 0 {
		fmt.Printf("URL verdicts:\n")
		for _, url := range report.URLVerdicts.URLs() {
			verdict, _ := report.URLVerdicts.Get(url)
			fmt.Printf("  - %s => %s\n", url, verdict)
		}
	}
	fmt.Printf("Model used: %s\n", report.ModelUsed)
	fmt.Printf("Run ID: %s\n", report.RunID)
	fmt.Printf("Processing time: %v\n", duration)

	// Close any resources that need closing
	if closer, ok := chatClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close chat client", zap.Error(err))
		}
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "azure":
		v.Set("azure.api_key", *azureAPIKey)
		v.Set("azure.endpoint", *azureEndpoint)
		v.Set("azure.deployment", *azureDeployment)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	}

	v.Set("engine.max_rounds", *maxRounds)
	v.Set("engine.max_body_size", *maxBodySize)
	v.Set("scanner.type", "static")
	v.Set("scanner.static_verdict", *staticVerdict)

	if *whitelistDomains != "" {
		domains := strings.Split(*whitelistDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("detection.whitelisted_domains", domains)
	} else {
		v.Set("detection.whitelisted_domains", []string{})
	}

	return config.NewFromViper(v)
}
