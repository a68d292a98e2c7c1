package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sobulik/fundec"
)

// fileConfig is the layout of the --config file.
//
//	balancer:
//	  maxRemoteChunk: 40
//	  maxLocalChunk: 10
//	nats:
//	  url: nats://127.0.0.1:4222
//	  subjectPrefix: fundec
//	metrics:
//	  addr: ":9090"
//	data: data.txt
type fileConfig struct {
	Balancer fundec.Config `yaml:"balancer"`
	NATS     natsConfig    `yaml:"nats"`
	Metrics  metricsConfig `yaml:"metrics"`
	Data     string        `yaml:"data"`
}

type natsConfig struct {
	URL              string        `yaml:"url"`
	SubjectPrefix    string        `yaml:"subjectPrefix"`
	BucketTTL        time.Duration `yaml:"bucketTTL"`
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

type metricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

const defaultDataFile = "data.txt"

// loadFileConfig reads path, or returns defaults when path is empty.
func loadFileConfig(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	fundec.SetDefaults(&fc.Balancer)
	if err := fc.Balancer.Validate(); err != nil {
		return nil, err
	}
	if fc.Data == "" {
		fc.Data = defaultDataFile
	}

	return fc, nil
}

// applyFlags lets explicitly set persistent flags override the file.
func (fc *fileConfig) applyFlags() {
	if dataFile != "" {
		fc.Data = dataFile
	}
	if metricsAddr != "" {
		fc.Metrics.Addr = metricsAddr
	}
}
