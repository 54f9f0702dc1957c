package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/util"
)

// Profiles are YAML files named <label>.yaml in ConfigsDir. The active label
// is stored in CurrentLabelFile.

var ErrNoConfig = errors.New("no config selected")

const (
	DefaultLabel = "Default"
	profileExt   = ".yaml"
)

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "noveld")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "noveld")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "noveld")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func profilePath(label string) string {
	return filepath.Join(ConfigsDir(), label+profileExt)
}

func checkLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}

// ConfigPathByLabel returns the path of an existing profile.
func ConfigPathByLabel(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}

	path := profilePath(label)
	if !util.Exists(path) {
		return "", fmt.Errorf("config %q: %w", label, os.ErrNotExist)
	}
	return path, nil
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}
	return label, nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	return profilePath(label), nil
}

func setActive(label string) error {
	if err := os.MkdirAll(ConfigRoot(), 0755); err != nil {
		return err
	}
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// readProfile decodes a profile file on top of the defaults, without the
// environment layer LoadMerged adds.
func readProfile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeProfile saves cfg under label. With replace unset an existing profile
// is an error.
func writeProfile(label string, cfg *Config, replace bool) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if err := os.MkdirAll(ConfigsDir(), 0755); err != nil {
		return "", err
	}

	path := profilePath(label)
	if !replace && util.Exists(path) {
		return "", fmt.Errorf("config %q: %w", label, os.ErrExist)
	}

	return path, SaveYAML(cfg, path)
}

// Profile summarizes one saved config for listings and the switch picker.
type Profile struct {
	Label  string
	Path   string
	Active bool

	Novel  string
	Site   string
	Start  int
	Output string

	// Err is set when the file could not be decoded.
	Err error
}

// Summary is a one-line description of what the profile downloads.
func (p Profile) Summary() string {
	switch {
	case p.Err != nil:
		return "unreadable: " + p.Err.Error()
	case p.Novel == "":
		return "no novel set (" + p.Site + ")"
	case p.Start > 1:
		return fmt.Sprintf("%s from chapter %d on %s -> %s", p.Novel, p.Start, p.Site, p.Output)
	default:
		return fmt.Sprintf("%s on %s -> %s", p.Novel, p.Site, p.Output)
	}
}

func newProfile(label, path, active string) Profile {
	p := Profile{Label: label, Path: path, Active: label == active}

	cfg, err := readProfile(path)
	if err != nil {
		p.Err = err
		return p
	}
	normalizeDefaults(cfg)

	p.Novel = book.NormalizeSlug(cfg.Novel)
	p.Site = cfg.Site
	p.Start = cfg.StartChapter
	if p.Novel != "" {
		p.Output = cfg.OutputPath(p.Novel)
	}
	return p
}

// ListProfiles returns every saved profile sorted by label.
func ListProfiles() ([]Profile, error) {
	entries, err := os.ReadDir(ConfigsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()

	var out []Profile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileExt) {
			continue
		}
		out = append(out, newProfile(strings.TrimSuffix(name, profileExt), filepath.Join(ConfigsDir(), name), active))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if _, err := ConfigPathByLabel(label); err != nil {
		return err
	}
	return setActive(label)
}

// AddConfig copies an existing YAML file in as a new profile. The file must
// decode as a config.
func AddConfig(label, srcPath string) error {
	if _, err := load(srcPath); err != nil {
		return fmt.Errorf("%s is not a valid config: %w", srcPath, err)
	}

	cfg, err := readProfile(srcPath)
	if err != nil {
		return err
	}

	_, err = writeProfile(label, cfg, false)
	return err
}

// CreateConfig writes a profile with default settings for novel, which may be
// empty. The novel is stored in slug form.
func CreateConfig(label, novel string) (string, error) {
	cfg := DefaultConfig()
	cfg.Novel = book.NormalizeSlug(novel)

	return writeProfile(label, cfg, false)
}

// ResetConfig overwrites a profile with the defaults. The profile keeps its
// novel unless novel is given.
func ResetConfig(label, novel string) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}

	cfg := DefaultConfig()
	if novel != "" {
		cfg.Novel = book.NormalizeSlug(novel)
	} else if old, err := readProfile(path); err == nil {
		cfg.Novel = old.Novel
	}

	return writeProfile(label, cfg, true)
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	if err := checkLabel(newLabel); err != nil {
		return err
	}

	newPath := profilePath(newLabel)
	if util.Exists(newPath) {
		return fmt.Errorf("config %q: %w", newLabel, os.ErrExist)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setActive(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one makes Default
// active again, reported by fellBack.
func RemoveConfig(label string) (fellBack bool, err error) {
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}

	path, err := ConfigPathByLabel(label)
	if err != nil {
		return false, err
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to %s: %w", DefaultLabel, err)
		}
		fellBack = true
	}

	return fellBack, os.Remove(path)
}

// InitDefaultConfig creates the Default profile and makes it active. If it
// already exists it is only activated and the error wraps os.ErrExist.
func InitDefaultConfig() (string, error) {
	path, err := CreateConfig(DefaultLabel, "")
	if errors.Is(err, os.ErrExist) {
		path = profilePath(DefaultLabel)
	} else if err != nil {
		return "", err
	}

	if serr := setActive(DefaultLabel); serr != nil {
		return "", serr
	}
	return path, err
}
