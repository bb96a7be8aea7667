package config

import (
	"time"

	"github.com/namsral/flag"
)

type Config struct {
	DBConnUri        string
	DBMigrationsPath string
	SecretKey        string
	ListenAddr       string
	LogLevel         string

	TokenExpiry       time.Duration
	DefaultCardLimit  int
	MaxAnswersPerTest int
}

// Load loads the configs from the given arguments. Each flag can also be
// set through an environment variable of the same name, uppercased, with
// dashes replaced by underscores.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("lexicards", flag.ContinueOnError)

	fs.StringVar(&c.DBConnUri, "db-conn-uri", "", "the connection string for the postgres database")
	fs.StringVar(&c.DBMigrationsPath, "db-migrations-path", "file://db/migrations", "the path where migrations are stored")
	fs.StringVar(&c.SecretKey, "secret-key", "", "secret key for signing auth tokens")
	fs.StringVar(&c.ListenAddr, "listen-addr", ":8190", "the address to listen on")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level")

	fs.DurationVar(&c.TokenExpiry, "token-expiry", 24*time.Hour, "lifetime of issued auth tokens")
	fs.IntVar(&c.DefaultCardLimit, "default-card-limit", 10, "default number of cards returned by review/test selection")
	fs.IntVar(&c.MaxAnswersPerTest, "max-answers-per-test", 100, "maximum number of answers accepted in a single test submission")

	err := fs.Parse(args)
	return err
}
