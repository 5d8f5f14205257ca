package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	JWTSecret string `env:"JWT_SECRET,required"`

	GatewayURL           string `env:"GATEWAY_URL" envDefault:"https://api.gateway.example.com"`
	GatewayAPIKey        string `env:"GATEWAY_API_KEY,required"`
	GatewayWebhookSecret string `env:"GATEWAY_WEBHOOK_SECRET,required"`
	CheckoutSuccessURL   string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/checkout/success"`
	CheckoutCancelURL    string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/checkout/cancel"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
