package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de salescope.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controla la ejecución de los análisis.
type AnalysisConfig struct {
	BatchWorkers int `yaml:"batch_workers"` // 0 = runtime.NumCPU() × 2
}

// StorageConfig controla dónde se leen los productos y se guardan los runs.
type StorageConfig struct {
	Driver   string `yaml:"driver"`    // sqlite | postgres
	DSN      string `yaml:"dsn"`       // ruta SQLite (o ":memory:"), o URL de Postgres
	MaxConns int32  `yaml:"max_conns"` // solo postgres
	SeedFile string `yaml:"seed_file"` // JSON de productos para -seed
}

// LLMConfig configura el router basado en chat completions.
type LLMConfig struct {
	APIKey              string  `yaml:"api_key"` // normalmente vía OPENAI_API_KEY
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
}

// HTTPConfig controla el servidor HTTP.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LLMTimeout devuelve el timeout por request como time.Duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// LLMEnabled es true cuando hay credenciales o un endpoint propio (p.ej. Ollama).
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != "" || c.LLM.BaseURL != ""
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	driver := os.Getenv("STORAGE_DRIVER")
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	// DATABASE_URL fuerza postgres salvo que STORAGE_DRIVER diga otra cosa
	if v := os.Getenv("DATABASE_URL"); v != "" && (driver == "" || driver == "postgres") {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v, err := strconv.Atoi(os.Getenv("BATCH_WORKERS")); err == nil {
		cfg.Analysis.BatchWorkers = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = "salescope.db"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.ConfidenceThreshold <= 0 {
		cfg.LLM.ConfidenceThreshold = 0.7
	}
	if cfg.LLM.RequestsPerSecond <= 0 {
		cfg.LLM.RequestsPerSecond = 2
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver %q: want sqlite or postgres", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
	}
	if c.LLM.ConfidenceThreshold > 1 {
		return fmt.Errorf("llm.confidence_threshold %.2f: must be in (0, 1]", c.LLM.ConfidenceThreshold)
	}
	if c.Analysis.BatchWorkers < 0 {
		return fmt.Errorf("analysis.batch_workers %d: must be >= 0", c.Analysis.BatchWorkers)
	}
	return nil
}
