package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avilrenovations/estimates/internal/flagx"
	"github.com/avilrenovations/estimates/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP   string         `json:"endpoint_addr_http"`
	DatabaseDSN        string         `json:"database_dsn"`
	ShutdownTimeout    timex.Duration `json:"shutdown_timeout"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	CheckoutBaseURL    string         `json:"checkout_base_url"`
	EvaluationFeeCents int64          `json:"evaluation_fee_cents"`
	EvaluationCurrency string         `json:"evaluation_currency"`
	GoogleLogSheetName string         `json:"google_log_sheet_name"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags;
// when neither is set, no JSON file is loaded.
//
// Only non-zero JSON values overwrite the current config, so a sparse file
// can override a single field. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(c.ShutdownTimeout.Duration)
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.CheckoutBaseURL != "" {
		config.CheckoutBaseURL = c.CheckoutBaseURL
	}
	if c.EvaluationFeeCents != 0 {
		config.EvaluationFeeCents = c.EvaluationFeeCents
	}
	if c.EvaluationCurrency != "" {
		config.EvaluationCurrency = c.EvaluationCurrency
	}
	if c.GoogleLogSheetName != "" {
		config.GoogleLogSheetName = c.GoogleLogSheetName
	}
}
