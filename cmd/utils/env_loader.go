package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileFlagName  = "env-file"
	EnvFileEnvVar    = "WMS_ADMIN_ENV_FILE"
	defaultEnvFile   = ".env"
	envFileFlagToken = "--" + EnvFileFlagName
)

// EnvFileSource tells where the env file path came from.
type EnvFileSource string

const (
	EnvFileFromFlag    EnvFileSource = "flag"
	EnvFileFromEnvVar  EnvFileSource = "env var"
	EnvFileFromDefault EnvFileSource = "default"
)

// LoadedEnvFile describes the env file loaded by LoadEnvFile. Path is empty when nothing was loaded.
type LoadedEnvFile struct {
	Path   string
	Source EnvFileSource
}

// LoadEnvFile loads an env file before the CLI is parsed, so its values can feed the config options. The file named
// by --env-file wins over the WMS_ADMIN_ENV_FILE env var, and both must exist. Without either, a .env file in the
// working directory is loaded when present.
func LoadEnvFile(args []string, getenv func(string) string) (LoadedEnvFile, error) {
	path, source := findEnvFile(args, getenv)
	if source == EnvFileFromDefault {
		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			return LoadedEnvFile{}, nil
		} else if err != nil {
			return LoadedEnvFile{}, fmt.Errorf("loading %s: %w", path, err)
		}
		return LoadedEnvFile{Path: path, Source: source}, nil
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := godotenv.Load(path); err != nil {
		return LoadedEnvFile{}, fmt.Errorf("loading env file %s set by %s: %w", path, source, err)
	}
	return LoadedEnvFile{Path: path, Source: source}, nil
}

func findEnvFile(args []string, getenv func(string) string) (string, EnvFileSource) {
	if path := envFileFromArgs(args); path != "" {
		return path, EnvFileFromFlag
	}
	if getenv != nil {
		if path := strings.TrimSpace(getenv(EnvFileEnvVar)); path != "" {
			return path, EnvFileFromEnvVar
		}
	}
	return defaultEnvFile, EnvFileFromDefault
}

// envFileFromArgs scans the raw arguments, since cobra has not parsed them yet.
func envFileFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			return ""
		}
		if arg == envFileFlagToken {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				return args[i+1]
			}
			return ""
		}
		if value, found := strings.CutPrefix(arg, envFileFlagToken+"="); found {
			return value
		}
	}
	return ""
}
