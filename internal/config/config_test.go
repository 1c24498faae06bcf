package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Make sure no overrides leak in from the environment.
	for _, key := range []string{
		"FACE_MATCH_THRESHOLD",
		"FACE_DUPLICATE_THRESHOLD",
		"FACE_LEARNING_CONFIDENCE",
		"FACE_MAX_DESCRIPTORS",
		"FACE_MAX_DISTANCE_SCALE",
		"FACE_IMAGE_MAX_SIZE",
		"DATABASE_MAX_OPEN_CONNS",
		"WEB_PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Recognition.Threshold != 0.6 {
		t.Errorf("default match threshold = %v, want 0.6", cfg.Recognition.Threshold)
	}
	if cfg.Recognition.DuplicateThreshold != 0.3 {
		t.Errorf("default duplicate threshold = %v, want 0.3", cfg.Recognition.DuplicateThreshold)
	}
	if cfg.Recognition.LearningConfidence != 0.7 {
		t.Errorf("default learning confidence = %v, want 0.7", cfg.Recognition.LearningConfidence)
	}
	if cfg.Recognition.MaxDescriptors != 5 {
		t.Errorf("default max descriptors = %d, want 5", cfg.Recognition.MaxDescriptors)
	}
	if cfg.Recognition.MaxDistanceScale != 1.6 {
		t.Errorf("default max distance scale = %v, want 1.6", cfg.Recognition.MaxDistanceScale)
	}
	if cfg.Recognition.ImageMaxSize != 400 {
		t.Errorf("default image max size = %d, want 400", cfg.Recognition.ImageMaxSize)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("default max open conns = %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("default web port = %d, want 8080", cfg.Web.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FACE_MATCH_THRESHOLD", "0.5")
	t.Setenv("FACE_MAX_DESCRIPTORS", "3")
	t.Setenv("DATABASE_URL", "postgres://test@localhost/test")

	cfg := Load()

	if cfg.Recognition.Threshold != 0.5 {
		t.Errorf("overridden threshold = %v, want 0.5", cfg.Recognition.Threshold)
	}
	if cfg.Recognition.MaxDescriptors != 3 {
		t.Errorf("overridden max descriptors = %d, want 3", cfg.Recognition.MaxDescriptors)
	}
	if cfg.Database.URL != "postgres://test@localhost/test" {
		t.Errorf("database URL = %q", cfg.Database.URL)
	}
}

func TestEnvHelpersRejectInvalid(t *testing.T) {
	t.Setenv("FACE_MATCH_THRESHOLD", "not-a-number")
	t.Setenv("FACE_MAX_DESCRIPTORS", "-2")

	cfg := Load()

	if cfg.Recognition.Threshold != 0.6 {
		t.Errorf("invalid float override should fall back to default, got %v", cfg.Recognition.Threshold)
	}
	if cfg.Recognition.MaxDescriptors != 5 {
		t.Errorf("invalid int override should fall back to default, got %d", cfg.Recognition.MaxDescriptors)
	}
}
