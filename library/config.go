package library

import (
	"os"

	"github.com/joho/godotenv"
)

// Gateway selector values for Config.Gateway.
const (
	GatewaySimulated = "simulated"
	GatewayMidtrans  = "midtrans"
)

// Config carries the process configuration, read from the environment with a
// .env file as fallback.
type Config struct {
	DBPath             string
	Gateway            string
	MidtransServerKey  string
	MidtransProduction bool
}

// LoadConfig loads .env (if present) and resolves settings with defaults
// suitable for local use.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		DBPath:  "library.db",
		Gateway: GatewaySimulated,
	}
	if v := os.Getenv("LIBRARY_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LIBRARY_GATEWAY"); v != "" {
		cfg.Gateway = v
	}
	cfg.MidtransServerKey = os.Getenv("MIDTRANS_SERVER_KEY")
	cfg.MidtransProduction = os.Getenv("MIDTRANS_PRODUCTION") == "true"
	return cfg
}

// NewGateway builds the payment gateway selected by the config.
func (c Config) NewGateway() PaymentGateway {
	if c.Gateway == GatewayMidtrans && c.MidtransServerKey != "" {
		return NewMidtransGateway(c.MidtransServerKey, c.MidtransProduction)
	}
	return SimulatedGateway{}
}
