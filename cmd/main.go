package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/glacya/memfs"
	"github.com/glacya/memfs/config"
	"github.com/glacya/memfs/internal/util"
	"github.com/glacya/memfs/requests"
	"github.com/glacya/memfs/shell"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		nodesDef   string
		scriptPath string
		verbose    int
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&nodesDef, "nodes", "", "Path to nodes def file")
	flag.StringVar(&nodesDef, "n", "", "--nodes (shorthand)")
	flag.StringVar(&scriptPath, "script", "", "Path to a command script to run instead of the interactive shell")
	flag.StringVar(&scriptPath, "s", "", "--script (shorthand)")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Parse()

	// Initialize logger
	if verbose < 1 {
		verbose = 1
	}
	if verbose > 5 {
		verbose = 5
	}
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	logLvl := logLvls[verbose-1]
	util.InitializeLogger(logLvl)
	logger := util.GetLogger("main")

	logger.Info().Int("verbose", verbose).Str("nodes", nodesDef).Str("script", scriptPath).Msg("MemFS initializing")

	// Init the fs
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = config.NewConfigFromFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	}
	// CLI verbosity wins over the config file
	cfg.LogLvl = logLvl

	fs := memfs.New(cfg)

	// Seed initial nodes
	if nodesDef != "" {
		reqs, err := requests.LoadFile(nodesDef)
		if err != nil {
			logger.Fatal().Err(err).Str("nodes", nodesDef).Msg("Failed to load nodes file")
		}
		fs.Seed(reqs)
	} else {
		logger.Debug().Msg("No nodes file provided")
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	sh := shell.New(fs, os.Stdout)
	defer sh.Close()

	// Script mode runs a command file and exits
	if scriptPath != "" {
		script, err := os.Open(scriptPath)
		if err != nil {
			logger.Fatal().Err(err).Str("script", scriptPath).Msg("Failed to open script file")
		}
		defer script.Close()

		if err := sh.Run(ctx, script); err != nil {
			logger.Fatal().Err(err).Str("script", scriptPath).Msg("Script failed")
		}
		return
	}

	// Interactive mode reads from stdin until EOF or exit
	sh.Prompt = "memfs> "
	logger.Info().Msg("Shell ready")
	if err := sh.Run(ctx, os.Stdin); err != nil {
		logger.Fatal().Err(err).Msg("Shell failed")
	}
	logger.Info().Msg("Shell exited")
}
