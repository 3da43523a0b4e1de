package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	conf Config

	workspaceDir     string
	workspaceDirOnce sync.Once
)

func MustInit() {
	GetWorkspaceDir()
	var err error
	conf, err = LoadConfig()
	if err != nil {
		panic(err)
	}
}

func GetConfig() Config { return conf }

const configFileName = "config.yaml"

func GetWorkspaceDir() string {
	workspaceDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		workspaceDir = filepath.Join(home, ".kumabot")
	})

	return workspaceDir
}

func GetWorkspaceConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".kumabot", configFileName), nil
}
