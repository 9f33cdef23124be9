package config

import "time"

// LoadTestConfig returns a valid configuration backed by in-memory SQLite.
func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8081,
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: 5 * time.Second,
			BodyLimit:      "12M",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			URL:          "file::memory:?cache=shared",
			QueryTimeout: 5 * time.Second,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Session: SessionConfig{
			Secret:     "test-secret-test-secret-test-secret!",
			TTL:        time.Hour,
			CookieName: "ruralsite_session",
			Issuer:     "ruralsite-test",
			BcryptCost: 4,
		},
		Activity: ActivityConfig{
			IdleTimeout: 15 * time.Minute,
			WarnBefore:  2 * time.Minute,
		},
		Login: LoginConfig{
			MaxFailedAttempts: 5,
			LockoutDuration:   time.Minute,
			AttemptWindow:     time.Minute,
			IPRateLimit:       100,
			IPBurst:           100,
		},
		Storage: StorageConfig{
			Provider: "s3",
			S3: S3Config{
				BucketName:    "test-bucket",
				Region:        "us-east-1",
				AccessKey:     "test",
				SecretKey:     "test",
				PublicBaseURL: "https://cdn.example.test",
			},
			Timeout:       5 * time.Second,
			MaxAttempts:   1,
			MaxBytes:      1 << 20,
			ImageMaxWidth: 1920,
		},
		Worker: WorkerConfig{
			Concurrency:    1,
			SweepSchedule:  "@every 1h",
			MaxRetryPasses: 3,
		},
		LogLevel: "error",
	}
}
