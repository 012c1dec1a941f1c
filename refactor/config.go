// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the configuration file
// looked up in the working directory.
const ConfigFile = "lift.yaml"

// A Config controls which packages are loaded and what is rewritten.
type Config struct {
	// BuildTags is a list of build tags to set for this configuration.
	//
	// Some build tags are propagated specially:
	//
	// - GOOS and GOARCH build tags control the GOOS/GOARCH environment
	// variables.
	//
	// - The "race" build tag controls the -race flag.
	//
	// - The "cgo" and "!cgo" build tags control the CGO_ENABLED environment
	// variable.
	BuildTags []string `yaml:"build_tags"`

	// Interfaces limits the rewrite to the named interfaces.
	// If empty, every interface with default methods is rewritten.
	Interfaces []string `yaml:"interfaces"`

	// Exclude lists directories, relative to the working directory,
	// that watch mode ignores.
	Exclude []string `yaml:"exclude"`
}

// DefaultConfig returns the configuration used when there is no config file.
func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{".git", "testdata", "vendor"},
	}
}

// LoadConfig reads the configuration for dir.
// If file is empty, LoadConfig reads ConfigFile in dir if it exists
// and otherwise returns DefaultConfig. If file is not empty, it must exist.
// Fields missing from the file keep their default values.
func LoadConfig(dir, file string) (*Config, error) {
	path := file
	if path == "" {
		path = filepath.Join(dir, ConfigFile)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if file == "" && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Check reports the first malformed build tag or interface name in c.
func (c *Config) Check() error {
	for _, tag := range c.BuildTags {
		if tag == "" || strings.ContainsAny(tag, ", \t") {
			return fmt.Errorf("invalid build tag %q", tag)
		}
	}
	for _, name := range c.Interfaces {
		if name == "" || strings.ContainsAny(name, ". \t[") {
			return fmt.Errorf("invalid interface name %q", name)
		}
	}
	return nil
}

func (c *Config) String() string {
	return strings.Join(c.BuildTags, ",")
}

func readJSON(cmd *exec.Cmd, out any) error {
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err != nil {
		return err
	}
	return json.Unmarshal(stdout.Bytes(), out)
}

type goosGoarch struct {
	GOOS         string
	GOARCH       string
	CgoSupported bool
}

var platformsOnce struct {
	once sync.Once
	ps   []goosGoarch
	err  error
}

func platforms() ([]goosGoarch, error) {
	platformsOnce.once.Do(func() {
		var platforms []goosGoarch
		cmd := exec.Command("go", "tool", "dist", "list", "-json")
		if err := readJSON(cmd, &platforms); err != nil {
			platformsOnce.err = fmt.Errorf("getting GOOS/GOARCH values: %w", err)
			return
		}
		platformsOnce.ps = platforms
	})
	return platformsOnce.ps, platformsOnce.err
}

// flagsEnvs returns the flags and environment variables to pass to go list to
// load packages in this build configuration.
func (c *Config) flagsEnvs() (flags, envs []string, err error) {
	if len(c.BuildTags) == 0 {
		return nil, nil, nil
	}
	plats, err := platforms()
	if err != nil {
		return nil, nil, err
	}
	gooses := make(map[string]bool)
	goarches := make(map[string]bool)
	for _, plat := range plats {
		gooses[plat.GOOS] = true
		goarches[plat.GOARCH] = true
	}

	var flagTags []string
	haveEnv := make(map[string]string)
	addEnv := func(k, v string) error {
		if v2, ok := haveEnv[k]; ok {
			if v == v2 {
				return nil
			}
			return fmt.Errorf("conflicting %s values: %s and %s", k, v, v2)
		}
		haveEnv[k] = v
		envs = append(envs, k+"="+v)
		return nil
	}
	for _, tag := range c.BuildTags {
		switch {
		case gooses[tag]:
			if err := addEnv("GOOS", tag); err != nil {
				return nil, nil, err
			}
		case goarches[tag]:
			if err := addEnv("GOARCH", tag); err != nil {
				return nil, nil, err
			}
		case tag == "cgo":
			if err := addEnv("CGO_ENABLED", "1"); err != nil {
				return nil, nil, err
			}
		case tag == "!cgo":
			if err := addEnv("CGO_ENABLED", "0"); err != nil {
				return nil, nil, err
			}
		case tag == "race":
			flags = append(flags, "-race")
		default:
			flagTags = append(flagTags, tag)
		}
	}
	if len(flagTags) > 0 {
		flags = append(flags, "-tags="+strings.Join(flagTags, ","))
	}
	return flags, envs, nil
}
