package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Type string `yaml:"type"`
		Key  string `yaml:"key"`
	} `yaml:"storage"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default возвращает конфигурацию, с которой сервис стартует без файла.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Storage.Type = "sqlite"
	cfg.Storage.Key = "news"
	cfg.SQLite.Path = "data/news.db"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load читает .env файлы (если есть), затем YAML по пути path.
// Ссылки вида ${VAR} в YAML подставляются из окружения.
// Отсутствующий файл конфигурации не ошибка: используются значения по умолчанию.
func Load(path string) (*Config, error) {
	loadDotEnvs()

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.Storage.Key == "" {
		return nil, errors.New("storage.key must not be empty")
	}
	return cfg, nil
}

// .env.local перекрывает .env; уже выставленные переменные не трогаются.
func loadDotEnvs() {
	env := os.Getenv("NEWSBLOG_ENV")
	if env == "" {
		env = "dev"
	}
	godotenv.Load(".env." + env + ".local")
	godotenv.Load(".env.local")
	godotenv.Load(".env." + env)
	godotenv.Load(".env")
}
