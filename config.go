package main

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings, read from the environment (and a local .env
// file when present).
type Config struct {
	// Audio output
	SampleRate int
	Buffer     time.Duration
	Backend    string // beep, oto or offline
	MasterGain float64

	// Playing
	NoteDuration float64 // seconds
	Octave       int
	MidiDevice   int // -1 picks the portmidi default input

	// Observability
	SentryDSN   string
	Environment string
}

func DefaultConfig() *Config {
	return &Config{
		SampleRate:   44100,
		Buffer:       100 * time.Millisecond,
		Backend:      "beep",
		MasterGain:   0.3,
		NoteDuration: 0.8,
		Octave:       4,
		MidiDevice:   -1,
		Environment:  "development",
	}
}

func LoadConfig() *Config {
	def := DefaultConfig()
	return &Config{
		SampleRate:   getEnvInt("HARMONIZER_SAMPLE_RATE", def.SampleRate),
		Buffer:       getEnvDuration("HARMONIZER_BUFFER", def.Buffer),
		Backend:      getEnv("HARMONIZER_BACKEND", def.Backend),
		MasterGain:   getEnvFloat("HARMONIZER_MASTER_GAIN", def.MasterGain),
		NoteDuration: getEnvFloat("HARMONIZER_NOTE_DURATION", def.NoteDuration),
		Octave:       getEnvInt("HARMONIZER_OCTAVE", def.Octave),
		MidiDevice:   getEnvInt("HARMONIZER_MIDI_DEVICE", def.MidiDevice),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		Environment:  getEnv("ENVIRONMENT", def.Environment),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, value, err)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, value, err)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, value, err)
		return defaultValue
	}
	return v
}
