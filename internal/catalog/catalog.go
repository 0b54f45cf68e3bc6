// Package catalog persists the list of tracked symbols shown in the bot's
// catalog keyboard.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultSymbols is used when the file is missing, unreadable or keyless.
var DefaultSymbols = []string{"BTC", "USDT", "SOL", "EUR", "USD"}

const listKey = "general_list"

var (
	ErrExists   = errors.New("symbol already tracked")
	ErrNotFound = errors.New("symbol not tracked")
	ErrInvalid  = errors.New("invalid symbol")
)

// Store is one shared ordered list of symbols backed by a JSON file:
//
//	{
//	    "general_list": ["BTC", "USDT"]
//	}
//
// Every read-modify-write runs under one mutex.
type Store struct {
	path string
	log  *zap.Logger

	mu      sync.Mutex
	symbols []string
}

// Open loads the list at path, falling back to DefaultSymbols.
func Open(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{path: path, log: log}
	s.symbols = s.load()
	return s
}

func (s *Store) load() []string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("reading catalog, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return slices.Clone(DefaultSymbols)
	}
	var doc map[string][]string
	if err := json.Unmarshal(b, &doc); err != nil {
		s.log.Warn("parsing catalog, using defaults", zap.String("path", s.path), zap.Error(err))
		return slices.Clone(DefaultSymbols)
	}
	list, ok := doc[listKey]
	if !ok {
		return slices.Clone(DefaultSymbols)
	}
	return normalize(list)
}

// List returns a copy of the tracked symbols in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.symbols)
}

// Contains reports whether symbol is tracked.
func (s *Store) Contains(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.symbols, symbol)
}

// Add appends symbol and persists the list.
func (s *Store) Add(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !Valid(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalid, symbol)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.symbols, symbol) {
		return fmt.Errorf("%w: %s", ErrExists, symbol)
	}
	next := append(slices.Clone(s.symbols), symbol)
	if err := s.save(next); err != nil {
		return err
	}
	s.symbols = next
	return nil
}

// Remove deletes symbol and persists the list.
func (s *Store) Remove(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.symbols, symbol)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	next := slices.Delete(slices.Clone(s.symbols), i, i+1)
	if err := s.save(next); err != nil {
		return err
	}
	s.symbols = next
	return nil
}

// save writes list through a temp file and rename. Callers hold mu.
func (s *Store) save(list []string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(map[string][]string{listKey: list}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Valid reports whether symbol looks like a ticker: 1 to 15 upper case
// letters or digits.
func Valid(symbol string) bool {
	if symbol == "" || len(symbol) > 15 {
		return false
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
