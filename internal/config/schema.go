package config

// Config holds folio configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Parser   ParserCfg   `mapstructure:"parser" yaml:"parser"`
	Database DatabaseCfg `mapstructure:"database" yaml:"database"`
	Index    IndexCfg    `mapstructure:"index" yaml:"index"`
	Log      LogCfg      `mapstructure:"log" yaml:"log"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// ParserCfg configures the parsing pipeline.
type ParserCfg struct {
	// Engine selects the parsing engine: "docjson" or "text".
	Engine string `mapstructure:"engine" yaml:"engine"`
	// BatchSize is the number of pages ingested per durable flush.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	// PersistEngineOutput writes the raw engine result alongside the book
	// artifacts for inspection and replay.
	PersistEngineOutput bool `mapstructure:"persist_engine_output" yaml:"persist_engine_output"`
}

// DatabaseCfg configures the SQLite database.
type DatabaseCfg struct {
	// Path overrides the default {home}/folio.db location when set.
	Path string `mapstructure:"path" yaml:"path"`
}

// IndexCfg configures the full-text search index.
type IndexCfg struct {
	// Path overrides the default {home}/index.bleve location when set.
	Path string `mapstructure:"path" yaml:"path"`
}

// LogCfg configures logging output.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8765,
		},
		Parser: ParserCfg{
			Engine:              "docjson",
			BatchSize:           10,
			PersistEngineOutput: false,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}
