// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Category string
	Country  string
	RelayURL string
	BaseURL  string
	Offline  bool
	Timeout  time.Duration
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Category string
	Since    *time.Time
	Last     int
	Chars    int
}

// SessionStats captures a completed typing session.
type SessionStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Category   string
	Country    string
	ArticleID  string
	ArticleURL string
	Chars      int
	Errors     int
	WPM        int
	Accuracy   int
	DurationMs int64
}

// CharStats stores per-character stats for a session.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Category   string
	Chars      int
	Errors     int
	WPM        int
	Accuracy   int
	DurationMs int64
}
