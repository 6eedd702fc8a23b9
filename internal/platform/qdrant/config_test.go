package qdrant

import (
	"errors"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	valid := Config{URL: "http://qdrant:6333", Collection: "courses", VectorDim: 1024}
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("ValidateConfig(valid): %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   ConfigErrorCode
	}{
		{"missing url", func(c *Config) { c.URL = "" }, ConfigErrorMissingURL},
		{"relative url", func(c *Config) { c.URL = "qdrant:6333" }, ConfigErrorInvalidURL},
		{"missing collection", func(c *Config) { c.Collection = " " }, ConfigErrorMissingCollection},
		{"missing dim", func(c *Config) { c.VectorDim = 0 }, ConfigErrorMissingVectorDim},
		{"negative dim", func(c *Config) { c.VectorDim = -1 }, ConfigErrorInvalidVectorDim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := ValidateConfig(cfg)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
		})
	}
}
