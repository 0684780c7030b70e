package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	objgraph "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"

	"github.com/objgraph-labs/objgraph/internal/comparers"
	"github.com/objgraph-labs/objgraph/internal/config"
	"github.com/objgraph-labs/objgraph/internal/engine"
	"github.com/objgraph-labs/objgraph/internal/events"
	"github.com/objgraph-labs/objgraph/internal/logger"
	"github.com/objgraph-labs/objgraph/internal/metrics"
	"github.com/objgraph-labs/objgraph/internal/tracing"

	"gopkg.in/yaml.v3"

	_ "github.com/objgraph-labs/objgraph/comparers/foldcase"
	_ "github.com/objgraph-labs/objgraph/comparers/numerictol"
	_ "github.com/objgraph-labs/objgraph/comparers/timeapprox"
)

const (
	ExitEqual           = 0
	ExitDifferences     = 1
	ExitUsageError      = 2
	ExitError           = 3
	ExitTimeout         = 124
	ExitSigBase         = 128
	ExitSigInt          = ExitSigBase + int(syscall.SIGINT)
	ExitSigTerm         = ExitSigBase + int(syscall.SIGTERM)
	DefaultLogLevel     = "info"
	DefaultLogFmt       = "text"
	DefaultEventBusSize = 256
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		runValidateCommand(os.Args[2:])
		return
	}
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		printVersion()
		os.Exit(ExitEqual)
	}
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "diff" {
		args = args[1:]
	}
	exitCode := runDiffCommand(args)
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("objgraph version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// defaultTypeTable registers the types a YAML or JSON document can actually
// contain, so profile comparer bindings can reference them by name.
func defaultTypeTable() *config.TypeTable {
	table := config.NewTypeTable()
	table.RegisterType("")
	table.RegisterType(false)
	table.RegisterType(int(0))
	table.RegisterType(int64(0))
	table.RegisterType(float64(0))
	table.RegisterType(time.Time{})
	table.RegisterType(map[string]interface{}{})
	table.RegisterType([]interface{}{})
	return table
}

func runValidateCommand(args []string) {
	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	profilePath := validateFlags.String("profile", "", "Path to the comparison profile YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level for validation output (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -profile <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure and schema compatibility of a comparison profile.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}

	if err := validateFlags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing validate flags: %v\n", err)
		os.Exit(ExitUsageError)
	}

	if *profilePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -profile flag is required for validation")
		validateFlags.Usage()
		os.Exit(ExitUsageError)
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating profile: %s", *profilePath)

	profile, err := config.LoadProfileFromFile(*profilePath)
	if err != nil {
		var validationErr *objerrors.ValidationError
		var configErr *objerrors.ConfigError
		if errors.As(err, &validationErr) {
			log.Errorf("Profile validation failed:\n%s", validationErr.Error())
		} else if errors.As(err, &configErr) {
			log.Errorf("Profile configuration error:\n%s", configErr.Error())
		} else {
			log.Errorf("Failed to load or validate profile: %v", err)
		}
		os.Exit(ExitError)
	}

	// Resolving options exercises the comparer bindings against the built-in
	// registry and the document type table, catching bad names early.
	if _, err := profile.BuildOptions(comparers.DefaultStaticRegistryGetter, defaultTypeTable()); err != nil {
		log.Errorf("Profile option resolution failed: %v", err)
		os.Exit(ExitError)
	}

	log.Infof("Profile validation successful: %s", *profilePath)
	os.Exit(ExitEqual)
}

func runDiffCommand(args []string) int {
	diffFlags := flag.NewFlagSet("objgraph", flag.ExitOnError)
	leftPath := diffFlags.String("left", "", "Path to the left YAML/JSON document (required)")
	rightPath := diffFlags.String("right", "", "Path to the right YAML/JSON document (required)")
	profilePath := diffFlags.String("profile", "", "Path to a comparison profile YAML file")
	logLevel := diffFlags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := diffFlags.String("log-format", DefaultLogFmt, "Log format (text, json)")
	outputFormat := diffFlags.String("output", "text", "Result output format (text, json)")
	ignoreOrder := diffFlags.Bool("ignore-order", false, "Treat sequences as unordered collections")
	maxDepth := diffFlags.Int("max-depth", 0, "Override the maximum traversal depth (0 keeps the profile/default value)")
	timeout := diffFlags.Duration("timeout", 0, "Wall-clock bound for the comparison (0 disables)")
	versionFlag := diffFlags.Bool("version", false, "Print version information and exit")

	diffFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [diff] -left <path> -right <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Compares two YAML/JSON documents structurally and reports every difference by path.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		diffFlags.PrintDefaults()
	}

	if err := diffFlags.Parse(args); err != nil {
		return ExitUsageError
	}

	if *versionFlag {
		printVersion()
		return ExitEqual
	}

	if *leftPath == "" || *rightPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -left and -right flags are required")
		diffFlags.Usage()
		return ExitUsageError
	}
	if *logFormat != "text" && *logFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -log-format must be 'text' or 'json'")
		return ExitUsageError
	}
	if *outputFormat != "text" && *outputFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: -output must be 'text' or 'json'")
		return ExitUsageError
	}

	var logWriter io.Writer = os.Stderr
	log := logger.NewLogger(*logLevel, *logFormat, logWriter)
	log = log.With("objgraph_version", version)

	log.Debugf("Log level: %s", *logLevel)
	log.Debugf("Log format: %s", *logFormat)

	opts := objgraph.DefaultOptions()
	if *profilePath != "" {
		profile, err := config.LoadProfileFromFile(*profilePath)
		if err != nil {
			log.Errorf("Failed to load profile '%s': %v", *profilePath, err)
			return ExitError
		}
		opts, err = profile.BuildOptions(comparers.DefaultStaticRegistryGetter, defaultTypeTable())
		if err != nil {
			log.Errorf("Failed to resolve profile '%s': %v", *profilePath, err)
			return ExitError
		}
		log.Infof("Loaded comparison profile '%s'.", profile.Name)
	}
	if *ignoreOrder {
		opts.IgnoreCollectionOrder = true
	}
	if *maxDepth > 0 {
		opts.MaxDepth = *maxDepth
	}

	eventBus := events.NewChannelEventBus(DefaultEventBusSize, log)
	defer eventBus.Close()
	metricsProvider := metrics.NewPrometheusRegistryProvider()
	tracerProvider, err := tracing.NewProviderFromEnv(context.Background())
	if err != nil {
		log.Warnf("Failed to initialize tracing from environment: %v. Using NoOp tracer.", err)
		tracerProvider, _ = tracing.NewNoOpProvider()
	}

	engineOpts := []objgraph.EngineOption{
		objgraph.WithOptions(opts),
		objgraph.WithEventBus(eventBus),
		objgraph.WithMetricsRegistryProvider(metricsProvider),
		objgraph.WithTracerProvider(tracerProvider),
	}

	internalEngine, err := engine.NewEngine(log, engineOpts...)
	if err != nil {
		log.Errorf("Failed to create objgraph engine: %v", err)
		return ExitError
	}
	if *timeout > 0 {
		if err := internalEngine.SetMaxDuration(*timeout); err != nil {
			log.Errorf("Failed to apply timeout: %v", err)
			return ExitError
		}
	}
	var objEngine objgraph.EngineV1 = internalEngine

	left, err := loadDocument(*leftPath)
	if err != nil {
		log.Errorf("Failed to load left document '%s': %v", *leftPath, err)
		return ExitError
	}
	right, err := loadDocument(*rightPath)
	if err != nil {
		log.Errorf("Failed to load right document '%s': %v", *rightPath, err)
		return ExitError
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	listenerCollectors := metrics.NewListenerCollectors(metricsProvider.Registry())
	listener := events.NewMetricsEventListener(eventBus,
		listenerCollectors.DifferencesTotal,
		listenerCollectors.CloneFailuresTotal,
		listenerCollectors.LimitsTotal,
		log)
	go listener.Start(runCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	defer close(sigChan)

	var receivedSignal os.Signal
	var sigMu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Cancelling comparison...", sig)
			sigMu.Lock()
			receivedSignal = sig
			sigMu.Unlock()
			cancelRun()
		case <-runCtx.Done():
			log.Debugf("Signal handler exiting because run context is done.")
		}
	}()
	defer wg.Wait()

	log.Infof("Comparing '%s' against '%s'...", *leftPath, *rightPath)
	result, cmpErr := objEngine.Compare(runCtx, left, right)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if shutdownErr := tracerProvider.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warnf("Error shutting down tracer provider: %v", shutdownErr)
	}

	printResult(log, result, cmpErr, *outputFormat)

	sigMu.Lock()
	finalSignal := receivedSignal
	sigMu.Unlock()
	return determineExitCode(result, cmpErr, finalSignal, log)
}

// loadDocument reads and parses one input file. YAML is a superset of JSON,
// so one parser covers both formats.
func loadDocument(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document parsing error: %w", err)
	}
	return doc, nil
}

// printResult writes the comparison outcome to stdout. Logs stay on stderr so
// piped output carries only the result.
func printResult(log objlog.Logger, result *objgraph.ComparisonResult, cmpErr error, format string) {
	if result == nil {
		log.Warnf("Comparison finished but no result was produced (likely due to early failure).")
		if cmpErr != nil {
			logComparisonErrorReason(log, cmpErr)
		}
		return
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Errorf("Failed to encode result as JSON: %v", err)
		}
		return
	}

	duration := result.ComparisonTime.Truncate(time.Microsecond)
	if result.AreEqual {
		log.Infof("Documents are structurally equal. Objects compared: %d, max depth: %d, duration: %v.",
			result.ObjectsCompared, result.MaxDepthReached, duration)
		return
	}
	log.Warnf("Documents differ: %d difference(s). Objects compared: %d, duration: %v.",
		len(result.Differences), result.ObjectsCompared, duration)
	for _, d := range result.Differences {
		fmt.Println(d.String())
	}
	if cmpErr != nil {
		logComparisonErrorReason(log, cmpErr)
	}
}

func logComparisonErrorReason(log objlog.Logger, cmpErr error) {
	if errors.Is(cmpErr, context.Canceled) {
		log.Warnf("Comparison Reason: Cancelled.")
	} else if errors.Is(cmpErr, context.DeadlineExceeded) {
		log.Errorf("Comparison Reason: Timeout.")
	} else {
		log.Errorf("Comparison Error: %v", cmpErr)
	}
}

func determineExitCode(result *objgraph.ComparisonResult, cmpErr error, sig os.Signal, log objlog.Logger) int {
	if cmpErr != nil {
		if errors.Is(cmpErr, context.Canceled) && sig != nil {
			switch sig {
			case syscall.SIGINT:
				log.Warnf("Comparison interrupted by signal: SIGINT")
				return ExitSigInt
			case syscall.SIGTERM:
				log.Warnf("Comparison terminated by signal: SIGTERM")
				return ExitSigTerm
			default:
				log.Warnf("Comparison terminated by signal: %v", sig)
				return ExitError
			}
		}
		if errors.Is(cmpErr, context.DeadlineExceeded) {
			log.Errorf("Comparison timed out.")
			return ExitTimeout
		}
		return ExitError
	}
	if result != nil && !result.AreEqual {
		return ExitDifferences
	}
	log.Infof("Comparison completed successfully.")
	return ExitEqual
}
