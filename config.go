package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	SaveDirectory   string
	ExportFilename  string  `validate:"required,endswith=.pdf"`
	CanvasWidth     float64 `validate:"gte=0"`
	CanvasHeight    float64 `validate:"gte=0"`
	ToolbarHeight   float64 `validate:"gte=16,lte=128"`
	LinkSidePolicy  string  `validate:"oneof=nearest direction"`
	SummaryRenderer string  `validate:"oneof=native chrome"`
	ExportScale     float64 `validate:"gte=1,lte=4"`
	Window          string  `validate:"oneof=fullscreen inline"`
	Confirmations   bool
	HFToken         string
	HFBaseURL       string `validate:"required,url"`
	HFModel         string `validate:"required"`
	LogFile         string
	Debug           bool
}

func defaultConfig() *Config {
	return &Config{
		ExportFilename:  "Synapse_Export.pdf",
		CanvasWidth:     defaultCanvasWidth,
		CanvasHeight:    defaultCanvasHeight,
		ToolbarHeight:   defaultToolbarHeight,
		LinkSidePolicy:  "nearest",
		SummaryRenderer: "native",
		ExportScale:     2,
		Window:          "fullscreen",
		Confirmations:   true,
		HFBaseURL:       "https://router.huggingface.co/v1",
		HFModel:         "Qwen/Qwen2.5-VL-72B-Instruct",
		LogFile:         defaultLogPath(),
	}
}

// Keys that may also be set as SYNAPSE_<KEY> in the environment.
var envKeys = []string{
	"save_directory", "export_filename", "canvas_width", "canvas_height",
	"toolbar_height", "link_side_policy", "summary_renderer", "export_scale",
	"window", "confirmations", "hf_base_url", "hf_model", "log_file", "debug",
}

// loadConfig reads ~/.synapserc, then .env, then the environment.
func loadConfig() (*Config, error) {
	rcPath := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		rcPath = filepath.Join(homeDir, ".synapserc")
	}
	// .env never overrides variables already set.
	_ = godotenv.Load()
	return loadConfigFrom(rcPath, os.Getenv)
}

func loadConfigFrom(rcPath string, getenv func(string) string) (*Config, error) {
	config := defaultConfig()
	var errs []error

	if rcPath != "" {
		if file, err := os.Open(rcPath); err == nil {
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				parts := strings.SplitN(line, "=", 2)
				if len(parts) != 2 {
					continue
				}
				if err := config.set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])); err != nil {
					errs = append(errs, err)
				}
			}
			file.Close()
		}
	}

	for _, key := range envKeys {
		if value := getenv("SYNAPSE_" + strings.ToUpper(key)); value != "" {
			if err := config.set(key, value); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if token := getenv("HF_ACCESS_TOKEN"); token != "" {
		config.HFToken = token
	}

	if err := errors.Join(errs...); err != nil {
		return config, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("config: %w", err)
	}
	return config, nil
}

func (c *Config) set(key, value string) error {
	number := func(dst *float64) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = v
		return nil
	}

	switch strings.ToLower(key) {
	case "savedirectory", "save_directory", "savedir":
		c.SaveDirectory = expandPath(value)
	case "export_filename":
		c.ExportFilename = value
	case "canvas_width":
		return number(&c.CanvasWidth)
	case "canvas_height":
		return number(&c.CanvasHeight)
	case "toolbar_height":
		return number(&c.ToolbarHeight)
	case "export_scale":
		return number(&c.ExportScale)
	case "link_side_policy":
		c.LinkSidePolicy = strings.ToLower(value)
	case "summary_renderer":
		c.SummaryRenderer = strings.ToLower(value)
	case "window":
		c.Window = strings.ToLower(value)
	case "confirmations", "confirm":
		c.Confirmations = strings.ToLower(value) == "true"
	case "hf_access_token":
		c.HFToken = value
	case "hf_base_url":
		c.HFBaseURL = strings.TrimRight(value, "/")
	case "hf_model":
		c.HFModel = value
	case "log_file":
		c.LogFile = expandPath(value)
	case "debug":
		c.Debug = strings.ToLower(value) == "true"
	}
	return nil
}

func expandPath(value string) string {
	if strings.HasPrefix(value, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(homeDir, strings.TrimPrefix(value, "~"))
		}
	}
	if !filepath.IsAbs(value) {
		if absPath, err := filepath.Abs(value); err == nil {
			value = absPath
		}
	}
	return value
}

func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}

func (c *Config) ExportPath() string {
	return c.GetSavePath(c.ExportFilename)
}
