package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the duration-valued policy settings
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required variables are enforced by must()
// at startup; policy settings fall back to the defaults the facility has
// been observed to run with.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign JWTs
	TokenTTL  int    // access token time-to-live in minutes

	Policy Policy // facility policy settings
	Pool   Pool   // connection pool settings
}

// Policy groups the facility's allocation and scheduling rules. The two
// occupancy thresholds are deliberately independent: OccupancyCeiling
// caps reservation overlap, WalkInMinAvailable is the minimum free
// fraction required to admit a walk-in. Both are fractions in (0, 1].
type Policy struct {
	TotalSpots         int           // number of numbered spots in the facility
	OccupancyCeiling   float64       // max fraction of spots overlapping a reservation window
	WalkInMinAvailable float64       // min free fraction required for immediate drop-off
	StayDuration       time.Duration // fixed parking stay granted on entry
	ExtensionDuration  time.Duration // fixed amount added by the single allowed extension
	TowAfter           time.Duration // absolute cutoff from entry before towing
	EarlyArrival       time.Duration // how early a reservation may be activated
	LateThreshold      int           // late pickups before the charge notice is sent
	SweepInterval      time.Duration // period of the towing and expiry sweeps
	ReportHour         int           // hour of day the monthly report job runs at
}

// Pool configures the bounded database connection pool.
type Pool struct {
	Max            int           // maximum pooled connections
	AcquireTimeout time.Duration // bounded wait before Acquire fails
}

// Load reads configuration values from environment variables and returns
// a Config. Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
		TokenTTL:  mustInt("ACCESS_TOKEN_TTL_MIN"),
		Policy:    loadPolicy(),
		Pool: Pool{
			Max:            envInt("BPARK_POOL_MAX", 10),
			AcquireTimeout: envDur("BPARK_POOL_ACQUIRE_TIMEOUT", 5*time.Second),
		},
	}
}

// loadPolicy reads the policy settings with their observed defaults.
func loadPolicy() Policy {
	p := Policy{
		TotalSpots:         envInt("BPARK_TOTAL_SPOTS", 100),
		OccupancyCeiling:   envFloat("BPARK_OCCUPANCY_CEILING", 0.60),
		WalkInMinAvailable: envFloat("BPARK_WALKIN_MIN_AVAILABLE", 0.40),
		StayDuration:       envDur("BPARK_STAY_DURATION", 4*time.Hour),
		ExtensionDuration:  envDur("BPARK_EXTENSION_DURATION", 4*time.Hour),
		TowAfter:           envDur("BPARK_TOW_AFTER", 8*time.Hour),
		EarlyArrival:       envDur("BPARK_EARLY_ARRIVAL", 15*time.Minute),
		LateThreshold:      envInt("BPARK_LATE_THRESHOLD", 3),
		SweepInterval:      envDur("BPARK_SWEEP_INTERVAL", time.Minute),
		ReportHour:         envInt("BPARK_REPORT_HOUR", 1),
	}
	if p.TotalSpots < 1 {
		log.Fatalf("BPARK_TOTAL_SPOTS must be positive, got %d", p.TotalSpots)
	}
	if p.OccupancyCeiling <= 0 || p.OccupancyCeiling > 1 {
		log.Fatalf("BPARK_OCCUPANCY_CEILING must be in (0,1], got %v", p.OccupancyCeiling)
	}
	if p.WalkInMinAvailable < 0 || p.WalkInMinAvailable > 1 {
		log.Fatalf("BPARK_WALKIN_MIN_AVAILABLE must be in [0,1], got %v", p.WalkInMinAvailable)
	}
	return p
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
