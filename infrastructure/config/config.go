package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/infrastructure/logger"
	"github.com/unitdag/unitd/version"
)

const (
	defaultConfigFilename     = "unitd.conf"
	defaultDataDirname        = "data"
	defaultLogLevel           = "info"
	defaultLogDirname         = "logs"
	defaultLogFilename        = "unitd.log"
	defaultErrLogFilename     = "unitd_err.log"
	defaultUnitPropsCacheSize = 10_000
	defaultValidationWorkers  = 4
	defaultDBCacheSizeMiB     = 64
	defaultLogMaxSizeMiB      = 10
	defaultLogMaxRolls        = 3
)

var (
	// DefaultAppDir is the default home directory for unitd.
	DefaultAppDir = defaultAppDir()

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

func defaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".unitd"
	}
	return filepath.Join(homeDir, ".unitd")
}

// Flags defines the configuration options for unitd.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion        bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile         string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir             string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir             string `long:"logdir" description:"Directory to log output."`
	LogMaxSizeMiB      int    `long:"log-max-size" description:"Size in MiB at which a log file is rolled"`
	LogMaxRolls        int    `long:"log-max-rolls" description:"Number of rolled log files to keep"`
	DebugLevel         string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Profile            string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	MetricsListen      string `long:"metrics-listen" description:"Serve Prometheus metrics on the given interface/port (eg. 127.0.0.1:9090)"`
	DBCacheSizeMiB     int    `long:"db-cache-size" description:"Size of the LevelDB block cache in MiB"`
	UnitPropsCacheSize int    `long:"cache-size" description:"Number of unit properties kept in memory"`
	ValidationWorkers  int    `long:"validation-workers" description:"Number of joints of a batch validated concurrently"`

	CatchupMCIInterval   uint64 `long:"catchup-mci-interval" description:"Main chain indexes between two balls of a catch-up chain"`
	CatchupMaxChainBalls int    `long:"catchup-max-chain-balls" description:"Maximum number of balls in a catch-up chain"`

	NetworkFlags
}

// Config defines the configuration options for unitd.
type Config struct {
	*Flags
}

// DBPath returns the directory of the database of the active network
func (cfg *Config) DBPath() string {
	return filepath.Join(cfg.AppDir, "db")
}

func newConfigParser(cfgFlags *Flags, options flags.Options) *flags.Parser {
	return flags.NewParser(cfgFlags, options)
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:         defaultConfigFile,
		DebugLevel:         defaultLogLevel,
		AppDir:             defaultDataDir,
		LogDir:             defaultLogDir,
		LogMaxSizeMiB:      defaultLogMaxSizeMiB,
		LogMaxRolls:        defaultLogMaxRolls,
		DBCacheSizeMiB:     defaultDBCacheSizeMiB,
		UnitPropsCacheSize: defaultUnitPropsCacheSize,
		ValidationWorkers:  defaultValidationWorkers,
	}
}

// DefaultConfig returns the default unitd configuration, on devnet
func DefaultConfig() *Config {
	config := &Config{Flags: defaultFlags()}
	config.Devnet = true
	return config
}

// LoadConfig initializes and parses the config using a config file and
// command line options. Logging is initialized once the log directory is
// known.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return nil, err
	}

	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename), filepath.Join(cfg.LogDir, defaultErrLogFilename),
		cfg.logRotation())
	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid debug level")
	}
	log.Infof("Loaded the configuration of %s", cfg.NetParams().Name)
	return cfg, nil
}

func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := *cfgFlags
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := newConfigParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}
	err = cfg.applyParamsOverrides()
	if err != nil {
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	err = cfg.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Namespace the data and log directories per network.
	cfg.AppDir = filepath.Join(cleanAndExpandPath(cfg.AppDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	return cfg, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: The profile port must be between 1024 and 65535", funcName)
		}
	}
	if cfg.ValidationWorkers < 1 {
		return errors.Errorf("%s: validation-workers must be at least 1", funcName)
	}
	if cfg.UnitPropsCacheSize < 1 {
		return errors.Errorf("%s: cache-size must be at least 1", funcName)
	}
	if cfg.DBCacheSizeMiB < 1 {
		return errors.Errorf("%s: db-cache-size must be at least 1", funcName)
	}
	if cfg.LogMaxSizeMiB < 1 || cfg.LogMaxRolls < 1 {
		return errors.Errorf("%s: log-max-size and log-max-rolls must be at least 1", funcName)
	}
	return nil
}

func (cfg *Config) logRotation() logger.RotationOptions {
	return logger.RotationOptions{
		ThresholdKB: int64(cfg.LogMaxSizeMiB) * 1024,
		MaxRolls:    cfg.LogMaxRolls,
	}
}

// applyParamsOverrides applies the params file and the catch-up flags on
// top of the parameters of the selected network
func (cfg *Config) applyParamsOverrides() error {
	if cfg.ParamsFile != "" {
		err := cfg.loadParamsFile()
		if err != nil {
			return err
		}
	}
	if cfg.CatchupMCIInterval == 0 && cfg.CatchupMaxChainBalls == 0 {
		return nil
	}

	params := cfg.ActiveNetParams.Clone()
	if cfg.CatchupMCIInterval != 0 {
		params.CatchupMCIInterval = cfg.CatchupMCIInterval
	}
	if cfg.CatchupMaxChainBalls != 0 {
		if cfg.CatchupMaxChainBalls < 2 {
			return errors.Errorf("catchup-max-chain-balls must be at least 2")
		}
		params.CatchupMaxChainBalls = cfg.CatchupMaxChainBalls
	}
	cfg.ActiveNetParams = params
	return nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
