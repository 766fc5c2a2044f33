package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Test default values
	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("Expected API.BaseURL default, got '%s'", cfg.API.BaseURL)
	}

	if cfg.Store.Backend != "file" {
		t.Errorf("Expected Store.Backend to be 'file', got '%s'", cfg.Store.Backend)
	}

	if cfg.Redis.Host != "localhost" {
		t.Errorf("Expected Redis.Host to be 'localhost', got '%s'", cfg.Redis.Host)
	}

	if cfg.Token.ExpiryBuffer.Duration != 30*time.Second {
		t.Errorf("Expected Token.ExpiryBuffer to be 30s, got %v", cfg.Token.ExpiryBuffer.Duration)
	}

	if cfg.Token.RefreshWindow.Duration != 2*time.Minute {
		t.Errorf("Expected Token.RefreshWindow to be 2m, got %v", cfg.Token.RefreshWindow.Duration)
	}

	if cfg.Checkout.DraftTTL.Duration != 24*time.Hour {
		t.Errorf("Expected Checkout.DraftTTL to be 24h, got %v", cfg.Checkout.DraftTTL.Duration)
	}

	if cfg.Callback.Address() != "127.0.0.1:8755" {
		t.Errorf("Expected Callback.Address to be '127.0.0.1:8755', got '%s'", cfg.Callback.Address())
	}

	if cfg.Order.TaxRate != 0.1 {
		t.Errorf("Expected Order.TaxRate to be 0.1, got %v", cfg.Order.TaxRate)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be 'development', got '%s'", cfg.Env)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://shop.example.com/api")
	os.Setenv("STORE_BACKEND", "redis")
	os.Setenv("REDIS_HOST", "redis.example.com")
	os.Setenv("TOKEN_REFRESH_WINDOW", "5m")
	os.Setenv("CHECKOUT_DRAFT_TTL", "2d")
	os.Setenv("ENV", "production")
	defer func() {
		os.Unsetenv("API_BASE_URL")
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("TOKEN_REFRESH_WINDOW")
		os.Unsetenv("CHECKOUT_DRAFT_TTL")
		os.Unsetenv("ENV")
	}()

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.API.BaseURL != "https://shop.example.com/api" {
		t.Errorf("Expected API.BaseURL override, got '%s'", cfg.API.BaseURL)
	}

	if cfg.Store.Backend != "redis" {
		t.Errorf("Expected Store.Backend to be 'redis', got '%s'", cfg.Store.Backend)
	}

	if cfg.Redis.Host != "redis.example.com" {
		t.Errorf("Expected Redis.Host override, got '%s'", cfg.Redis.Host)
	}

	if cfg.Token.RefreshWindow.Duration != 5*time.Minute {
		t.Errorf("Expected Token.RefreshWindow to be 5m, got %v", cfg.Token.RefreshWindow.Duration)
	}

	if cfg.Checkout.DraftTTL.Duration != 48*time.Hour {
		t.Errorf("Expected Checkout.DraftTTL to be 2d, got %v", cfg.Checkout.DraftTTL.Duration)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
}

func TestLoadWithInvalidBaseURL(t *testing.T) {
	os.Setenv("API_BASE_URL", "not-a-url")
	defer os.Unsetenv("API_BASE_URL")

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error when API_BASE_URL is not absolute")
	}
}

func TestLoadWithInvalidBackend(t *testing.T) {
	os.Setenv("STORE_BACKEND", "postgres")
	defer os.Unsetenv("STORE_BACKEND")

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error for unsupported storage backend")
	}
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{
		Host: "localhost",
		Port: "6379",
	}

	addr := redis.Address()
	expected := "localhost:6379"
	if addr != expected {
		t.Errorf("Expected Address to be '%s', got '%s'", expected, addr)
	}
}

func TestDurationDaysSuffix(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("3d")); err != nil {
		t.Fatalf("Failed to parse days duration: %v", err)
	}
	if d.Duration != 72*time.Hour {
		t.Errorf("Expected 3d to be 72h, got %v", d.Duration)
	}

	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("Failed to parse standard duration: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Expected 90s, got %v", d.Duration)
	}

	if err := d.UnmarshalText([]byte("xd")); err == nil {
		t.Error("Expected error for invalid days value")
	}
}
