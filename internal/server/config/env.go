package config

import "os"

// parseEnv overlays environment variables onto the config. Env wins over
// defaults, JSON and flags so that deployment secrets always take effect.
func parseEnv(config *Config) {
	setIfPresent := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setIfPresent(&config.EndpointAddrHTTP, "ADDRESS")
	setIfPresent(&config.DatabaseDSN, "DATABASE_DSN")
	setIfPresent(&config.S3RootUser, "S3_ROOT_USER")
	setIfPresent(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setIfPresent(&config.S3Bucket, "S3_BUCKET")
	setIfPresent(&config.S3Region, "S3_REGION")
	setIfPresent(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setIfPresent(&config.StripeSecretKey, "STRIPE_SECRET_KEY")
	setIfPresent(&config.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setIfPresent(&config.CheckoutBaseURL, "CHECKOUT_BASE_URL")

	setIfPresent(&config.GoogleCredentialsJSON, "GOOGLE_SHEETS_CREDENTIALS")
	setIfPresent(&config.GoogleSheetID, "GOOGLE_SHEET_ID")
	setIfPresent(&config.GoogleLogSheetName, "GOOGLE_LOG_SHEET")
	setIfPresent(&config.GoogleDriveFolderID, "GOOGLE_DRIVE_FOLDER_ID")
	setIfPresent(&config.NotifyWebhookURL, "NOTIFY_WEBHOOK_URL")
}
