package config

import "testing"

func TestBootstrapDefaults(t *testing.T) {
	c := BootstrapConfig()

	if c.Redis.Addr == "" {
		t.Error("no default redis addr")
	}
	if c.Danbooru.BaseURL == "" {
		t.Error("no default danbooru base url")
	}
	if c.Bus.StreamMaxLength <= 0 {
		t.Error("no default stream max length")
	}
	if c.Bus.BlockSeconds <= 0 {
		t.Error("no default bus block timeout")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KUMA_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("KUMA_DANBOORU_USER", "kuma")
	t.Setenv("KUMA_STREAM_MAX_LENGTH", "4096")

	c := BootstrapConfig()
	if err := applyEnv(&c); err != nil {
		t.Fatalf("applyEnv error = %v", err)
	}

	if c.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q", c.Redis.Addr)
	}
	if c.Danbooru.Username != "kuma" {
		t.Errorf("danbooru user = %q", c.Danbooru.Username)
	}
	if c.Bus.StreamMaxLength != 4096 {
		t.Errorf("stream max length = %d", c.Bus.StreamMaxLength)
	}
}
