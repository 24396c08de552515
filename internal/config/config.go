package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region config
// Config is the runtime configuration of the bin controller.
type Config struct {
	BinID string

	// Storage
	DBPath       string
	SnapshotPath string
	SaveEvery    int

	// Sensor input: a serial port, or a frame file when SerialPort is empty.
	// An empty InputPath reads frames from stdin.
	SerialPort   string
	Port         sensor.PortOptions
	InputPath    string
	PollInterval time.Duration

	// Servo output: "serial" shares the sensor port, "log" only logs.
	ActuatorDriver string

	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// ClickHouse
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// gRPC listen address; empty disables the service
	GRPCAddr string

	// Console
	PlainConsole  bool
	StatsInterval time.Duration

	// Tuning, optionally overridden by the file at TuningPath
	TuningPath string
	Tuning     Tuning
}

// Load reads .env (if present) and the environment, then applies the
// tuning file when SORTER_TUNING names one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Config: ignoring .env: %v", err)
	}

	cfg := &Config{
		BinID: getEnv("SORTER_BIN_ID", "bin-1"),

		DBPath:       getEnv("SORTER_DB", "smartwaste.db"),
		SnapshotPath: getEnv("SORTER_SNAPSHOT", "counters.msgpack"),
		SaveEvery:    getEnvInt("SORTER_SAVE_EVERY", stats.DefaultSaveEvery),

		SerialPort: getEnv("SORTER_SERIAL_PORT", ""),
		Port: sensor.PortOptions{
			BaudRate: getEnvInt("SORTER_BAUD_RATE", 115200),
			DataBits: getEnvInt("SORTER_DATA_BITS", 8),
			StopBits: getEnvInt("SORTER_STOP_BITS", 1),
			Parity:   getEnv("SORTER_PARITY", "N"),
		},
		InputPath:    getEnv("SORTER_INPUT", ""),
		PollInterval: getEnvDuration("SORTER_POLL_INTERVAL", 100*time.Millisecond),

		ActuatorDriver: getEnv("SORTER_ACTUATOR", "log"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "smartwaste-controller"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "smartwaste"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		GRPCAddr: getEnv("SORTER_GRPC_ADDR", ""),

		PlainConsole:  getEnvBool("SORTER_PLAIN", false),
		StatsInterval: getEnvDuration("SORTER_STATS_INTERVAL", time.Minute),

		TuningPath: getEnv("SORTER_TUNING", ""),
		Tuning:     DefaultTuning(),
	}

	if cfg.TuningPath != "" {
		t, err := LoadTuning(cfg.TuningPath)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = t
	}
	if v := getEnvFloat("SORTER_MIN_CONFIDENCE", 0); v > 0 {
		cfg.Tuning.Classifier.MinConfidence = v
		cfg.Tuning.Gate.MinConfidence = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.BinID == "" {
		return fmt.Errorf("config: bin id is empty")
	}
	if c.SaveEvery < 1 {
		return fmt.Errorf("config: save every must be at least 1, got %d", c.SaveEvery)
	}
	switch c.ActuatorDriver {
	case "log", "serial":
	default:
		return fmt.Errorf("config: unknown actuator driver %q", c.ActuatorDriver)
	}
	if c.ActuatorDriver == "serial" && c.SerialPort == "" {
		return fmt.Errorf("config: serial actuator driver needs SORTER_SERIAL_PORT")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll interval must be positive")
	}
	return c.Tuning.Validate()
}

// #endregion config

// #region env-getters
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Config: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Config: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Config: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Config: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}

// #endregion env-getters
