// Package config loads the geometry constants and overprovisioning ratio
// the FTL is parameterized over from a key/value file. This implementation
// picks the dotenv KEY=VALUE format via github.com/joho/godotenv.
package config

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sarchlab/flashftl/address"
)

// Config holds the raw geometry constants plus the log file path.
// Geometry() derives the address.Geometry the rest of the FTL uses.
type Config struct {
	SSDSize          uint64
	PackageSize      uint64
	DieSize          uint64
	PlaneSize        uint64
	BlockSize        uint64
	BlockErases      uint64
	Overprovisioning float64
	LogFile          string
}

// Geometry converts the loaded config into an address.Geometry.
func (c Config) Geometry() address.Geometry {
	return address.Geometry{
		SSDSize:          c.SSDSize,
		PackageSize:      c.PackageSize,
		DieSize:          c.DieSize,
		PlaneSize:        c.PlaneSize,
		BlockSize:        c.BlockSize,
		BlockErases:      c.BlockErases,
		Overprovisioning: c.Overprovisioning,
	}
}

var requiredKeys = []string{
	"SSD_SIZE", "PACKAGE_SIZE", "DIE_SIZE", "PLANE_SIZE",
	"BLOCK_SIZE", "BLOCK_ERASES", "OVERPROVISIONING",
}

// Load reads a KEY=VALUE geometry file and returns the parsed Config. The
// LOG_FILE key is optional; it defaults to "ftl.log".
func Load(path string) (Config, error) {
	kv, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	for _, k := range requiredKeys {
		if _, ok := kv[k]; !ok {
			return Config{}, fmt.Errorf("config: missing required key %s", k)
		}
	}

	var c Config
	var perr error
	u := func(key string) uint64 {
		v, err := strconv.ParseUint(kv[key], 10, 64)
		if err != nil && perr == nil {
			perr = fmt.Errorf("config: parsing %s=%q: %w", key, kv[key], err)
		}
		return v
	}

	c.SSDSize = u("SSD_SIZE")
	c.PackageSize = u("PACKAGE_SIZE")
	c.DieSize = u("DIE_SIZE")
	c.PlaneSize = u("PLANE_SIZE")
	c.BlockSize = u("BLOCK_SIZE")
	c.BlockErases = u("BLOCK_ERASES")
	if perr != nil {
		return Config{}, perr
	}

	op, err := strconv.ParseFloat(kv["OVERPROVISIONING"], 64)
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing OVERPROVISIONING=%q: %w", kv["OVERPROVISIONING"], err)
	}
	c.Overprovisioning = op

	c.LogFile = kv["LOG_FILE"]
	if c.LogFile == "" {
		c.LogFile = "ftl.log"
	}

	return c, nil
}
