package config

import (
	"os"
	"sync"

	"emperror.dev/errors"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

const DefaultLocation = "/etc/isoforge/config.yml"

var (
	mu      sync.RWMutex
	_config *Configuration
)

type Configuration struct {
	// The location from which this configuration instance was instantiated.
	path string

	// Determines if isoforge should be running in debug mode. This value is
	// ignored if the debug flag is passed through the command line arguments.
	Debug bool `yaml:"debug"`

	System SystemConfiguration `yaml:"system"`
	Volume VolumeConfiguration `yaml:"volume"`
}

// SystemConfiguration defines basic system configuration settings.
type SystemConfiguration struct {
	// Directory where isoforge log files are stored.
	LogDirectory string `default:"/var/log/isoforge" yaml:"log_directory"`

	// The number of bytes read from a source file per write when streaming
	// its contents into an image.
	ChunkSize int `default:"4096" yaml:"chunk_size"`

	// The maximum number of volume descriptor sectors that are scanned when
	// looking for the primary descriptor of an existing image before giving
	// up. The scan also stops early at a descriptor set terminator.
	DescriptorScanLimit int `default:"32" yaml:"descriptor_scan_limit"`
}

// VolumeConfiguration defines the identifiers stamped into the primary
// volume descriptor of images built by this instance.
type VolumeConfiguration struct {
	// The volume identifier, at most 32 characters of uppercase ASCII.
	Identifier string `default:"ISOFORGE" yaml:"identifier"`

	// The system identifier, at most 32 characters of uppercase ASCII.
	SystemIdentifier string `default:"LINUX" yaml:"system_identifier"`
}

// NewAtPath creates a new struct and set the path where it should be stored.
// This function does not modify the currently stored global configuration.
func NewAtPath(path string) (*Configuration, error) {
	var c Configuration
	// Configures the default values for many of the configuration options
	// present in the structs.
	if err := defaults.Set(&c); err != nil {
		return nil, errors.WithStackIf(err)
	}
	c.path = path
	return &c, nil
}

// Set the global configuration instance.
func Set(c *Configuration) {
	mu.Lock()
	_config = c
	mu.Unlock()
}

// Get returns the global configuration instance. If one has not been loaded
// yet a configuration with only the default values applied is returned so
// that callers never need to nil-check the result.
func Get() *Configuration {
	mu.RLock()
	if _config != nil {
		defer mu.RUnlock()
		return _config
	}
	mu.RUnlock()
	c, err := NewAtPath(DefaultLocation)
	if err != nil {
		panic(errors.WithMessage(err, "config: failed to build default configuration"))
	}
	Set(c)
	return c
}

// SetDebugViaFlag tracks if the application is running in debug mode because
// of a command line flag argument. If so we do not want to store that value
// in the configuration file.
func SetDebugViaFlag(d bool) {
	mu.Lock()
	if _config != nil {
		_config.Debug = _config.Debug || d
	}
	mu.Unlock()
}

// FromFile reads the configuration from the provided file and stores it in
// the global singleton for this instance. A missing file is not an error;
// the defaults are kept in that case.
func FromFile(path string) error {
	c, err := NewAtPath(path)
	if err != nil {
		return errors.WithStackIf(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			Set(c)
			return nil
		}
		return errors.WithStackIf(err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrap(err, "config: could not decode configuration file")
	}

	Set(c)
	return nil
}

// GetPath returns the path for this configuration file.
func (c *Configuration) GetPath() string {
	return c.path
}
