package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultDataFile = "xdatabase.secdb"
	// DefaultPassword matches the password existing data files were
	// written with. Override it with --password or SECDB_PASSWORD.
	DefaultPassword = "pwd@123"
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 5000

	PasswordEnv = "SECDB_PASSWORD"
)

var ErrInvalidArguments = errors.New("invalid arguments")

type Arguments struct {
	// The encrypted data file
	DataFile string `json:"data_file"`
	Password string `json:"-"`

	// Users file for basic auth; empty disables auth
	UsersFile string `json:"users_file"`

	ConfigFile string `json:"-"`

	// the host name or IP address to listen on
	Host string `json:"host"`

	// the port number to listen on
	Port int `json:"port"`

	Debug bool `json:"debug"`

	// Strongly verbose logging
	Verbose bool `json:"verbose"`
}

// Defaults returns the arguments used when nothing else is configured.
func Defaults() *Arguments {
	return &Arguments{
		DataFile: DefaultDataFile,
		Password: DefaultPassword,
		Host:     DefaultHost,
		Port:     DefaultPort,
	}
}

// Addr is the listen address built from Host and Port.
func (a *Arguments) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// BaseURL is the address clients use to reach a server started with
// these arguments.
func (a *Arguments) BaseURL() string {
	return "http://" + a.Addr()
}

// LoadConfigFile overlays the JSON config file at path onto args. Keys
// missing from the file leave the current value alone.
func LoadConfigFile(path string, args *Arguments) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	if err := json.Unmarshal(data, args); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv takes the password from SECDB_PASSWORD unless it was set
// explicitly.
func ApplyEnv(args *Arguments, passwordSet bool) {
	if passwordSet {
		return
	}
	if pw, ok := os.LookupEnv(PasswordEnv); ok && pw != "" {
		args.Password = pw
	}
}

// Validate validates the arguments and returns an error if invalid
func Validate(args *Arguments) error {
	if args.DataFile == "" {
		return fmt.Errorf("%w: data file must not be empty", ErrInvalidArguments)
	}
	if args.Password == "" {
		return fmt.Errorf("%w: password must not be empty", ErrInvalidArguments)
	}

	// Validate port range
	if args.Port < 1 || args.Port > 65535 {
		return fmt.Errorf("%w: invalid port number: %d (must be between 1 and 65535)", ErrInvalidArguments, args.Port)
	}

	// Only inspect the paths here; commands that write call EnsureDirs.
	for _, file := range args.files() {
		if info, err := os.Stat(file); err == nil && info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrInvalidArguments, file)
		}
		dir := filepath.Dir(file)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrInvalidArguments, dir)
		}
	}

	// If config file is specified, check if it exists and is readable
	if args.ConfigFile != "" {
		if _, err := os.Stat(args.ConfigFile); err != nil {
			return fmt.Errorf("%w: could not access config file: %w", ErrInvalidArguments, err)
		}
	}
	return nil
}

func (a *Arguments) files() []string {
	var files []string
	for _, file := range []string{a.DataFile, a.UsersFile} {
		if file != "" {
			files = append(files, file)
		}
	}
	return files
}

// EnsureDirs creates the parent directories of the data and users files.
func EnsureDirs(args *Arguments) error {
	for _, file := range args.files() {
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	return nil
}
