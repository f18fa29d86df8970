package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Scraper: endpoint público y pass-through opcional de sesión.
	ScraperBaseURL string `env:"SCRAPER_BASE_URL" envDefault:"https://www.instagram.com"`
	SessionCookie  string `env:"IG_SESSION_COOKIE"`

	// Colaboradores de clasificación (servidor de inferencia).
	TextModelBaseURL  string `env:"TEXT_MODEL_BASE_URL" envDefault:"http://localhost:9090"`
	TextModelName     string `env:"TEXT_MODEL_NAME" envDefault:"xlm-roberta-base"`
	ImageModelBaseURL string `env:"IMAGE_MODEL_BASE_URL" envDefault:"http://localhost:9091"`
	ImageModelName    string `env:"IMAGE_MODEL_NAME" envDefault:"vit-base-patch16-224"`
	ModelAPIKey       string `env:"MODEL_API_KEY"`

	// Parametros del pipeline de análisis.
	MaxPosts           int     `env:"MAX_POSTS" envDefault:"5"`
	RateLimitDelaySec  int     `env:"RATE_LIMIT_DELAY_SEC" envDefault:"2"`
	CacheTTLHours      int     `env:"CACHE_TTL_HOURS" envDefault:"24"`
	TextWeight         float64 `env:"TEXT_WEIGHT" envDefault:"0.6"`
	MaxCommentsPerPost int     `env:"MAX_COMMENTS_PER_POST" envDefault:"5"`

	DownloadDir string `env:"DOWNLOAD_DIR" envDefault:"downloads"`
	CacheDir    string `env:"CACHE_DIR" envDefault:"cache"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
