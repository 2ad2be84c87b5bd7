package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del analizador.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Fitting  FittingConfig  `yaml:"fitting"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controla qué se analiza y con qué cadencia.
type AnalysisConfig struct {
	Symbols         []string `yaml:"symbols"`
	WindowDays      []int    `yaml:"window_days"`
	IntervalHours   int      `yaml:"interval_hours"`
	Workers         int      `yaml:"workers"`
	TaskTimeoutSecs int      `yaml:"task_timeout_seconds"`
	Dedup           bool     `yaml:"dedup"`
}

// FittingConfig controla el fitting multi-arranque.
type FittingConfig struct {
	RandomTries    int     `yaml:"random_tries"`
	MaxEvaluations int     `yaml:"max_evaluations"`
	R2Floor        float64 `yaml:"r2_floor"`
	Workers        int     `yaml:"workers"`
	Seed           int64   `yaml:"seed"` // 0 = derivada del reloj
}

// APIConfig contiene los base URLs y las API keys de las fuentes de datos.
// Las keys vienen del entorno, no del YAML.
type APIConfig struct {
	FREDBase         string `yaml:"fred_base"`
	AlphaVantageBase string `yaml:"alpha_vantage_base"`
	YahooBase        string `yaml:"yahoo_base"`
	FREDKey          string `yaml:"-"`
	AlphaVantageKey  string `yaml:"-"`
}

// StorageConfig controla dónde se persisten los resultados.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// OutputConfig controla charts y exports.
type OutputConfig struct {
	ChartDir   string `yaml:"chart_dir"`  // vacío = sin charts
	ExportDir  string `yaml:"export_dir"` // vacío = sin exports
	ExportCSV  bool   `yaml:"export_csv"`
	ExportJSON bool   `yaml:"export_json"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las API keys y el nivel de log se leen siempre del entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// AnalysisInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) AnalysisInterval() time.Duration {
	return time.Duration(c.Analysis.IntervalHours) * time.Hour
}

// TaskTimeout devuelve el timeout por tarea como time.Duration.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Analysis.TaskTimeoutSecs) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.API.FREDKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.API.AlphaVantageKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Analysis.Symbols) == 0 {
		cfg.Analysis.Symbols = []string{"^GSPC", "NASDAQCOM"}
	}
	if len(cfg.Analysis.WindowDays) == 0 {
		cfg.Analysis.WindowDays = []int{365, 730}
	}
	if cfg.Analysis.IntervalHours <= 0 {
		cfg.Analysis.IntervalHours = 24
	}
	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = 4
	}
	if cfg.Analysis.TaskTimeoutSecs <= 0 {
		cfg.Analysis.TaskTimeoutSecs = 300
	}
	if cfg.Fitting.RandomTries <= 0 {
		cfg.Fitting.RandomTries = 40
	}
	if cfg.Fitting.MaxEvaluations <= 0 {
		cfg.Fitting.MaxEvaluations = 20000
	}
	if cfg.Fitting.R2Floor <= 0 {
		cfg.Fitting.R2Floor = 0.1
	}
	if cfg.API.FREDBase == "" {
		cfg.API.FREDBase = "https://api.stlouisfed.org/fred"
	}
	if cfg.API.AlphaVantageBase == "" {
		cfg.API.AlphaVantageBase = "https://www.alphavantage.co"
	}
	if cfg.API.YahooBase == "" {
		cfg.API.YahooBase = "https://query1.finance.yahoo.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "lppl.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
