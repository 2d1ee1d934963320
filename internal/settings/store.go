package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"wfm_order_visibility/internal/syndicate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

const (
	DefaultPath = "user_info.properties"

	keyUserName = "userName"
	keyJWT      = "jwt"
)

func init() {
	// write "key=value" like a properties file instead of "key = value"
	ini.PrettyFormat = false
}

// Settings holds the user name, auth token and per-syndicate visibility flags.
// It is loaded once at start, mutated by the menu and persisted with Save.
type Settings struct {
	fs        afero.Fs
	path      string
	userName  string
	authToken string
	visible   map[syndicate.ID]bool
}

func defaults(fs afero.Fs, path string) *Settings {
	s := &Settings{
		fs:      fs,
		path:    path,
		visible: make(map[syndicate.ID]bool, len(syndicate.All())),
	}
	for _, id := range syndicate.All() {
		s.visible[id] = true
	}
	return s
}

// Load reads the settings file at path. A missing file is replaced by
// defaults (every syndicate visible, no user name, no token) which are
// written out right away. Any other read or parse failure is returned.
func Load(fs afero.Fs, path string) (*Settings, error) {
	s := defaults(fs, path)

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No settings file found, writing defaults")
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	sec := cfg.Section(ini.DefaultSection)
	s.userName = sec.Key(keyUserName).String()
	s.authToken = sec.Key(keyJWT).String()
	for _, id := range syndicate.All() {
		if !sec.HasKey(id.PropertyKey()) {
			continue
		}
		s.visible[id] = strings.EqualFold(strings.TrimSpace(sec.Key(id.PropertyKey()).String()), "true")
	}

	log.Debug().
		Str("path", path).
		Str("user_name", s.userName).
		Bool("has_token", s.authToken != "").
		Msg("Loaded settings")
	return s, nil
}

// Save overwrites the settings file with the in-memory values.
func (s *Settings) Save() error {
	cfg := ini.Empty()
	sec := cfg.Section(ini.DefaultSection)

	entries := []struct{ key, value string }{
		{keyUserName, s.userName},
		{keyJWT, s.authToken},
	}
	for _, id := range syndicate.All() {
		entries = append(entries, struct{ key, value string }{id.PropertyKey(), fmt.Sprintf("%t", s.visible[id])})
	}
	for _, e := range entries {
		if _, err := sec.NewKey(e.key, e.value); err != nil {
			return fmt.Errorf("failed to encode setting %s: %w", e.key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", s.path, err)
	}

	log.Debug().Str("path", s.path).Msg("Saved settings")
	return nil
}

func (s *Settings) Path() string { return s.path }

func (s *Settings) UserName() string { return s.userName }

func (s *Settings) SetUserName(name string) { s.userName = name }

func (s *Settings) AuthToken() string { return s.authToken }

func (s *Settings) SetAuthToken(token string) { s.authToken = token }

// Visible reports the stored visibility of a syndicate. Unknown IDs are invisible.
func (s *Settings) Visible(id syndicate.ID) bool { return s.visible[id] }

func (s *Settings) SetVisible(id syndicate.ID, visible bool) {
	if _, ok := s.visible[id]; !ok {
		return
	}
	s.visible[id] = visible
}

// Visibility returns a copy of all six flags.
func (s *Settings) Visibility() map[syndicate.ID]bool {
	out := make(map[syndicate.ID]bool, len(s.visible))
	for id, v := range s.visible {
		out[id] = v
	}
	return out
}
