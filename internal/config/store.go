package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// BotConfig: поведение бота, хранится в YAML рядом с бинарником.
type BotConfig struct {
	Prefix              string   `yaml:"prefix" validate:"required"`
	CaseInsensitive     bool     `yaml:"case_insensitive"`
	Owners              []string `yaml:"owners"`
	RallyPrefix         string   `yaml:"rally_prefix" validate:"required"`
	CountdownMaxSeconds int      `yaml:"countdown_max_seconds" validate:"gt=0"`
	SendRatePerSecond   float64  `yaml:"send_rate_per_second" validate:"gt=0"`
	SendBurst           int      `yaml:"send_burst" validate:"gt=0"`
	BoomFile            string   `yaml:"boom_file"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Prefix:              ".",
		CaseInsensitive:     true,
		RallyPrefix:         "rc",
		CountdownMaxSeconds: 3600,
		SendRatePerSecond:   5,
		SendBurst:           5,
		BoomFile:            "gif/boom.gif",
	}
}

type Store struct {
	mu   sync.Mutex
	path string
	data BotConfig
}

func NewStore(path string) *Store {
	return &Store{path: path, data: DefaultBotConfig()}
}

// Load читает файл; если его нет: создаёт с настройками по умолчанию.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.save(s.data)
		}
		return err
	}
	data := DefaultBotConfig()
	if err := yaml.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if err := validate.Struct(&data); err != nil {
		return fmt.Errorf("invalid %s: %w", s.path, err)
	}
	s.data = data
	return nil
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(s.data)
}

func (s *Store) save(data BotConfig) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(&data)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

// Get: копия текущих настроек.
func (s *Store) Get() BotConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyData()
}

func (s *Store) copyData() BotConfig {
	cp := s.data
	cp.Owners = append([]string(nil), s.data.Owners...)
	return cp
}

// Update меняет настройки и сразу сохраняет файл. Если файл записать
// не удалось, текущие настройки не меняются.
func (s *Store) Update(fn func(*BotConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.copyData()
	fn(&next)
	if err := s.save(next); err != nil {
		return err
	}
	s.data = next
	return nil
}
