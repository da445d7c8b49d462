package config

const (
	EnvPrefix = "LEADCOLLECT"

	PluginName    = "LeadCollect-CartRecovery"
	PluginVersion = "1.0.0"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "LEADCOLLECT_APP_ENV"
	EnvDBDSN  = "LEADCOLLECT_DB_DSN"
	EnvDBHost = "LEADCOLLECT_DB_HOST"
	EnvDBUser = "LEADCOLLECT_DB_USER"
	EnvDBName = "LEADCOLLECT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
