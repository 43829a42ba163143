package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type AuthEnv struct {
	// HS256 secret of the identity provider. Tokens are verified at the
	// transport layer; handlers only consume the resulting claim set.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER"`
}

type StoreEnv struct {
	Type string `envconfig:"STORE_TYPE" default:"local"`
	// DynamoDB settings (used when Type == "dynamodb")
	DynamoTable    string `envconfig:"DYNAMO_TABLE" default:"task-manager"`
	DynamoRegion   string `envconfig:"DYNAMO_REGION" default:"eu-central-1"`
	DynamoEndpoint string `envconfig:"DYNAMO_ENDPOINT"`
	// Blob storage settings (used when Type == "local" or "s3")
	BaseDir  string `envconfig:"STORE_BASE_DIR" default:".taskdeck/data"`
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskdeck/"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
}

type Env struct {
	BaseEnv
	AuthEnv
	StoreEnv
}

const namespace = "TASKDECK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
