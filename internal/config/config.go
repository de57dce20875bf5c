// Package config — загрузка окружения при старте сервисов.
//
// Конфигурация читается из переменных окружения; для локальной
// разработки переменные подхватываются из файла .env.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv подхватывает .env файл, если он есть.
// Отсутствие файла не является ошибкой: в проде переменные
// задаются окружением процесса.
func LoadDotEnv(logger *slog.Logger) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("failed to load env file", "path", path, "error", err)
		return
	}

	logger.Debug("loaded env file", "path", path)
}

// Getenv возвращает значение переменной окружения или значение
// по умолчанию, если переменная не задана.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// BaseURL возвращает публичный адрес приложения (ссылки на подписание,
// reply URL для checkout).
func BaseURL() string {
	return Getenv("APP_BASE_URL", "http://localhost:8080")
}
