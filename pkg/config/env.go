package config

// EnvPrefix is handed to envconfig; explicit tags below carry the full names.
const EnvPrefix = "INDYHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "INDYHUB_APP_ENV"
	EnvPort   = "INDYHUB_APP_PORT"

	EnvDBDSN  = "INDYHUB_DB_DSN"
	EnvDBHost = "INDYHUB_DB_HOST"
	EnvDBUser = "INDYHUB_DB_USER"
	EnvDBName = "INDYHUB_DB_NAME"

	EnvRedisURL = "INDYHUB_REDIS_URL"

	EnvJWTSecret = "INDYHUB_JWT_SECRET"
	EnvJWTIssuer = "INDYHUB_JWT_ISSUER"

	EnvGCPProjectID = "INDYHUB_GCP_PROJECT_ID"

	EnvPubSubExchangeTopic     = "INDYHUB_PUBSUB_EXCHANGE_TOPIC"
	EnvPubSubExchangeSub       = "INDYHUB_PUBSUB_EXCHANGE_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "INDYHUB_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "INDYHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
