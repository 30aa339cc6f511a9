package config

import (
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every externally tunable setting. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"emporia"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`

	JWTSecret string `env:"JWT_SECRET,required"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY,required"`
	StripeAPIURL    string `env:"STRIPE_API_URL" envDefault:"https://api.stripe.com"`

	// BaseURL is where the storefront frontend lives; checkout success and
	// cancel redirects point back at it.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	MediaDir string `env:"MEDIA_DIR" envDefault:"./static/uploads"`

	// InvoiceSecret signs the QR payload embedded in PDF invoices.
	InvoiceSecret string `env:"INVOICE_SECRET" envDefault:""`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.InvoiceSecret == "" {
		cfg.InvoiceSecret = cfg.JWTSecret
	}
	return cfg, nil
}
