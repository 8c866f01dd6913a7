package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/flightlab/boostersim/internal/flight"
	"github.com/flightlab/boostersim/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "boostersim.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. BOOSTERSIM_SERVER_ADDRESS.
const EnvPrefix = "BOOSTERSIM"

// SimulationConfig controls the real-time runner and the recorder.
type SimulationConfig struct {
	TickInterval    time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	InitialSpeed    float64       `json:"initialSpeed" mapstructure:"initialSpeed"`
	AutoStart       bool          `json:"autoStart" mapstructure:"autoStart"`
	CaptureInterval float64       `json:"captureInterval" mapstructure:"captureInterval"` // sim seconds
	RunName         string        `json:"runName" mapstructure:"runName"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Address      string        `json:"address" mapstructure:"address"`
	ReadTimeout  time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
	CommandRate  float64       `json:"commandRate" mapstructure:"commandRate"` // commands per second
	CommandBurst int           `json:"commandBurst" mapstructure:"commandBurst"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds in-memory SQLite backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpDir      string        `json:"dumpDir" mapstructure:"dumpDir"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite, postgres, websocket
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Host      string `json:"host" mapstructure:"host"`
	Port      string `json:"port" mapstructure:"port"`
	Protocol  string `json:"protocol" mapstructure:"protocol"`
	Token     string `json:"token" mapstructure:"token"`
	Org       string `json:"org" mapstructure:"org"`
	BackupDir string `json:"backupDir" mapstructure:"backupDir"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GraylogConfig holds GELF output settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// UploadConfig controls pushing finished recordings to a web frontend
type UploadConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logFormat", "text")

	viper.SetDefault("simulation.tickInterval", "16ms")
	viper.SetDefault("simulation.initialSpeed", 1.0)
	viper.SetDefault("simulation.autoStart", false)
	viper.SetDefault("simulation.captureInterval", 1.0)
	viper.SetDefault("simulation.runName", "Falcon 9 RTLS")

	v := flight.DefaultVehicle()
	viper.SetDefault("vehicle.name", v.Name)
	viper.SetDefault("vehicle.dryMass", v.DryMass)
	viper.SetDefault("vehicle.fuelMass", v.FuelMass)
	viper.SetDefault("vehicle.oxidizerMass", v.OxidizerMass)
	viper.SetDefault("vehicle.maxThrust", v.MaxThrust)
	viper.SetDefault("vehicle.isp", v.Isp)
	viper.SetDefault("vehicle.dragCoefficient", v.DragCoefficient)
	viper.SetDefault("vehicle.referenceArea", v.ReferenceArea)
	viper.SetDefault("vehicle.engines", v.Engines)

	viper.SetDefault("server.address", ":5000")
	viper.SetDefault("server.readTimeout", "10s")
	viper.SetDefault("server.writeTimeout", "10s")
	viper.SetDefault("server.commandRate", 20.0)
	viper.SetDefault("server.commandBurst", 10)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpDir", "./recordings")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "boostersim")
	viper.SetDefault("db.sslMode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "boostersim")
	viper.SetDefault("influx.backupDir", "./logs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "boostersim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.serverUrl", "http://localhost:5000")
	viper.SetDefault("upload.apiKey", "")
}

// GetSimulationConfig returns runner and recorder settings.
func GetSimulationConfig() SimulationConfig {
	return SimulationConfig{
		TickInterval:    viper.GetDuration("simulation.tickInterval"),
		InitialSpeed:    viper.GetFloat64("simulation.initialSpeed"),
		AutoStart:       viper.GetBool("simulation.autoStart"),
		CaptureInterval: viper.GetFloat64("simulation.captureInterval"),
		RunName:         viper.GetString("simulation.runName"),
	}
}

// GetVehicleConfig returns the vehicle spec, defaulting to the Falcon 9 first stage.
func GetVehicleConfig() core.VehicleSpec {
	return core.VehicleSpec{
		Name:            viper.GetString("vehicle.name"),
		DryMass:         viper.GetFloat64("vehicle.dryMass"),
		FuelMass:        viper.GetFloat64("vehicle.fuelMass"),
		OxidizerMass:    viper.GetFloat64("vehicle.oxidizerMass"),
		MaxThrust:       viper.GetFloat64("vehicle.maxThrust"),
		Isp:             viper.GetFloat64("vehicle.isp"),
		DragCoefficient: viper.GetFloat64("vehicle.dragCoefficient"),
		ReferenceArea:   viper.GetFloat64("vehicle.referenceArea"),
		Engines:         viper.GetInt("vehicle.engines"),
	}
}

// GetPhases returns the configured phase table, or the default profile
// when none is configured. The table is validated.
func GetPhases() (flight.PhaseTable, error) {
	if !viper.IsSet("phases") {
		return flight.DefaultPhases(), nil
	}
	var phases flight.PhaseTable
	if err := viper.UnmarshalKey("phases", &phases); err != nil {
		return nil, fmt.Errorf("failed to decode phases: %w", err)
	}
	if err := phases.Validate(); err != nil {
		return nil, err
	}
	return phases, nil
}

// GetServerConfig returns HTTP API settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:      viper.GetString("server.address"),
		ReadTimeout:  viper.GetDuration("server.readTimeout"),
		WriteTimeout: viper.GetDuration("server.writeTimeout"),
		CommandRate:  viper.GetFloat64("server.commandRate"),
		CommandBurst: viper.GetInt("server.commandBurst"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpDir:      viper.GetString("storage.sqlite.dumpDir"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslMode"),
	}
}

// GetInfluxConfig returns the InfluxDB connection settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:   viper.GetBool("influx.enabled"),
		Host:      viper.GetString("influx.host"),
		Port:      viper.GetString("influx.port"),
		Protocol:  viper.GetString("influx.protocol"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF output settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetUploadConfig returns recording upload settings.
func GetUploadConfig() UploadConfig {
	return UploadConfig{
		Enabled:   viper.GetBool("upload.enabled"),
		ServerURL: viper.GetString("upload.serverUrl"),
		APIKey:    viper.GetString("upload.apiKey"),
	}
}
