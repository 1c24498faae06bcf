package config

import (
	_ "embed"
	"os"
	"strconv"

	"github.com/shiftbase/faceclock/internal/facerec"
	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Recognition RecognitionConfig
	Web         WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// RecognitionConfig holds the tunable parameters of the face matching and
// adaptive learning pipeline. Defaults come from the embedded thresholds.yaml;
// each value can be overridden through environment variables.
type RecognitionConfig struct {
	Threshold          float64 `yaml:"threshold"`           // accepted match distance upper bound (strict)
	DuplicateThreshold float64 `yaml:"duplicate_threshold"` // same-employee duplicate suppression
	LearningConfidence float64 `yaml:"learning_confidence"` // minimum confidence to learn during clock events
	MaxDescriptors     int     `yaml:"max_descriptors"`     // descriptor cap per employee (FIFO eviction)
	MaxDistanceScale   float64 `yaml:"max_distance_scale"`  // distance-to-confidence normalization constant
	ImageMaxSize       int     `yaml:"image_max_size"`      // proof image bound in pixels
}

// FaceConfig projects the recognition parameters into the matcher's config.
func (rc RecognitionConfig) FaceConfig() facerec.Config {
	return facerec.Config{
		Threshold:          rc.Threshold,
		DuplicateThreshold: rc.DuplicateThreshold,
		LearningConfidence: rc.LearningConfidence,
		MaxDescriptors:     rc.MaxDescriptors,
		MaxDistanceScale:   rc.MaxDistanceScale,
	}
}

type WebConfig struct {
	Host string
	Port int
}

type thresholdsFile struct {
	Recognition RecognitionConfig `yaml:"recognition"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable, falling back to a default when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults thresholdsFile
	if err := yaml.Unmarshal(thresholdsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}
	rec := defaults.Recognition

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Recognition: RecognitionConfig{
			Threshold:          envFloat("FACE_MATCH_THRESHOLD", rec.Threshold),
			DuplicateThreshold: envFloat("FACE_DUPLICATE_THRESHOLD", rec.DuplicateThreshold),
			LearningConfidence: envFloat("FACE_LEARNING_CONFIDENCE", rec.LearningConfidence),
			MaxDescriptors:     envInt("FACE_MAX_DESCRIPTORS", rec.MaxDescriptors),
			MaxDistanceScale:   envFloat("FACE_MAX_DISTANCE_SCALE", rec.MaxDistanceScale),
			ImageMaxSize:       envInt("FACE_IMAGE_MAX_SIZE", rec.ImageMaxSize),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
	}
}
