package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("name: ${SAMPLE_NAME}\ncount: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" || s.Count != 2 {
		t.Errorf("loaded %+v", s)
	}
}

func TestLoad_Missing(t *testing.T) {
	var s sample
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default"}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	if err != nil || loaded || s.Name != "default" {
		t.Errorf("missing file: loaded=%v err=%v s=%+v", loaded, err, s)
	}

	s = sample{Count: -1}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Error("defaults must still be validated")
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("count: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s = sample{Name: "default"}
	loaded, err = LoadOptional(path, &s)
	if err != nil || !loaded || s.Count != 5 || s.Name != "default" {
		t.Errorf("present file: loaded=%v err=%v s=%+v", loaded, err, s)
	}
}
