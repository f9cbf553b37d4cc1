// Package config loads the pipeline's YAML configuration and validates it
// before any worker starts, in the shape of the toto ingestor's
// config.Config: unmarshal-then-Validate, with typed accessors over the
// raw struct rather than scattered flag parsing.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lobrecon/domain/lob"
	"lobrecon/resample"
)

// -----------------------------------------------------------------------------

// DateRange bounds the trading dates a run processes, inclusive both ends.
type DateRange struct {
	Start string `yaml:"start"` // YYYYMMDD
	End   string `yaml:"end"`   // YYYYMMDD
}

// -----------------------------------------------------------------------------

// Config is the full pipeline configuration.
type Config struct {
	Name string `yaml:"name"`

	DateRange DateRange `yaml:"date_range"`

	ArchiveBase      string `yaml:"archive_base"`
	DatabaseBase     string `yaml:"database_base"`
	TempBase         string `yaml:"temp_base"`
	CatalogDir       string `yaml:"catalog_dir"`
	ArchiveExtension string `yaml:"archive_extension"`

	// InstrumentsFile points at the small YAML bootstrap list
	// catalog.LoadInstruments reads (code/name/listing/delisting dates).
	InstrumentsFile string `yaml:"instruments_file"`

	EncoderWorkers    int `yaml:"encoder_workers"`
	SequentialWorkers int `yaml:"sequential_workers"`
	MaxTempFolders    int `yaml:"max_temp_folders"`

	// PoolSlots bounds how many dates' feature tensors may be resident in
	// memory at once (feature.Pool's slot count).
	PoolSlots int `yaml:"pool_slots"`
	// NumInstruments is the A dimension shared by every feature tensor.
	NumInstruments int `yaml:"num_instruments"`

	CleanupAfterProcessing bool `yaml:"cleanup_after_processing"`
	SkipExistingBinaries   bool `yaml:"skip_existing_binaries"`

	Venue    lob.Venue       `yaml:"venue"`
	Resample resample.Config `yaml:"resample"`

	// KafkaBrokers feeds both broadcast.DayBroadcaster (sarama) and
	// broadcast.EncodeNotifier (kafka-go); empty disables both.
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	DayReadyTopic string   `yaml:"day_ready_topic"`
	EncodeTopic   string   `yaml:"encode_topic"`

	GRPCHost string `yaml:"grpc_host"`
	GRPCPort int    `yaml:"grpc_port"`

	// CPUAffinity assigns sequential worker id -> CPU core; empty disables
	// pinning entirely.
	CPUAffinity []int `yaml:"cpu_affinity"`
}

// -----------------------------------------------------------------------------

// Load reads and parses the YAML file at path and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// -----------------------------------------------------------------------------

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name cannot be empty")
	}

	if c.DateRange.Start == "" || c.DateRange.End == "" {
		return fmt.Errorf("date_range.start and date_range.end are required")
	}
	if c.DateRange.Start > c.DateRange.End {
		return fmt.Errorf("date_range.start (%s) must not be after date_range.end (%s)", c.DateRange.Start, c.DateRange.End)
	}

	if c.ArchiveBase == "" {
		return fmt.Errorf("archive_base cannot be empty")
	}
	if c.DatabaseBase == "" {
		return fmt.Errorf("database_base cannot be empty")
	}
	if c.CatalogDir == "" {
		return fmt.Errorf("catalog_dir cannot be empty")
	}
	if c.ArchiveExtension == "" {
		return fmt.Errorf("archive_extension cannot be empty")
	}
	if c.InstrumentsFile == "" {
		return fmt.Errorf("instruments_file cannot be empty")
	}

	if c.EncoderWorkers <= 0 {
		return fmt.Errorf("encoder_workers must be positive, got %d", c.EncoderWorkers)
	}
	if c.SequentialWorkers <= 0 {
		return fmt.Errorf("sequential_workers must be positive, got %d", c.SequentialWorkers)
	}
	if c.MaxTempFolders <= 0 {
		return fmt.Errorf("max_temp_folders must be positive, got %d", c.MaxTempFolders)
	}

	if c.PoolSlots <= 0 {
		return fmt.Errorf("pool_slots must be positive, got %d", c.PoolSlots)
	}
	if c.NumInstruments <= 0 {
		return fmt.Errorf("num_instruments must be positive, got %d", c.NumInstruments)
	}

	if c.Resample.TargetBarPeriod <= 0 {
		return fmt.Errorf("resample.target_bar_period must be positive, got %d", c.Resample.TargetBarPeriod)
	}
	if c.Resample.TradeHoursPerDay <= 0 {
		return fmt.Errorf("resample.trade_hours_per_day must be positive, got %v", c.Resample.TradeHoursPerDay)
	}
	if c.Resample.EMADaysPeriod <= 0 {
		return fmt.Errorf("resample.ema_days_period must be positive, got %v", c.Resample.EMADaysPeriod)
	}

	return nil
}
