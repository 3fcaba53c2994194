// Package config loads lingocast settings from a TOML file with
// environment fallbacks.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config keys, as used by `lingocast config`.
const (
	KeyContentDir  = "content-dir"
	KeyCacheDir    = "cache-dir"
	KeyTempDir     = "temp-dir"
	KeyOutputDir   = "output-dir"
	KeyTTSModel    = "tts-model"
	KeyTTSVoice    = "tts-voice"
	KeyTTSSpeed    = "tts-speed"
	KeyAlbumTitle  = "album-title"
	KeyAlbumArtist = "album-artist"
	KeyAlbumName   = "album-name"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyListenAddr  = "listen-addr"
	KeyPublicURL   = "public-url"
)

// EnvPrefix prefixes the environment fallback of every key:
// content-dir falls back to LINGOCAST_CONTENT_DIR.
const EnvPrefix = "LINGOCAST_"

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config holds effective settings: file values, then environment
// fallbacks, then defaults.
type Config struct {
	ContentDir  string
	CacheDir    string
	TempDir     string
	OutputDir   string
	TTSModel    string
	TTSVoice    string
	TTSSpeed    float64
	AlbumTitle  string
	AlbumArtist string
	AlbumName   string
	LogLevel    string
	LogFormat   string
	ListenAddr  string
	PublicURL   string
}

// File is the on-disk layout of config.toml.
type File struct {
	Paths  Paths  `toml:"paths,omitempty"`
	TTS    TTS    `toml:"tts,omitempty"`
	Album  Album  `toml:"album,omitempty"`
	Log    Log    `toml:"log,omitempty"`
	Server Server `toml:"server,omitempty"`
}

// Paths groups directory settings.
type Paths struct {
	ContentDir string `toml:"content_dir,omitempty"`
	CacheDir   string `toml:"cache_dir,omitempty"`
	TempDir    string `toml:"temp_dir,omitempty"`
	OutputDir  string `toml:"output_dir,omitempty"`
}

// TTS groups speech synthesis settings.
type TTS struct {
	Model string `toml:"model,omitempty"`
	Voice string `toml:"voice,omitempty"`
	Speed string `toml:"speed,omitempty"`
}

// Album groups the ID3 tags of assembled episodes.
type Album struct {
	Title  string `toml:"title,omitempty"`
	Artist string `toml:"artist,omitempty"`
	Name   string `toml:"name,omitempty"`
}

// Log groups logging settings.
type Log struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// Server groups HTTP settings.
type Server struct {
	ListenAddr string `toml:"listen_addr,omitempty"`
	PublicURL  string `toml:"public_url,omitempty"`
}

type field struct {
	def      string
	ref      func(*File) *string
	validate func(string) error
}

var fields = map[string]field{
	KeyContentDir:  {def: "./content", ref: func(f *File) *string { return &f.Paths.ContentDir }},
	KeyCacheDir:    {def: "./.cache/podcast", ref: func(f *File) *string { return &f.Paths.CacheDir }},
	KeyTempDir:     {def: "./.cache/temp", ref: func(f *File) *string { return &f.Paths.TempDir }},
	KeyOutputDir:   {ref: func(f *File) *string { return &f.Paths.OutputDir }, validate: validDir},
	KeyTTSModel:    {def: "tts-1", ref: func(f *File) *string { return &f.TTS.Model }},
	KeyTTSVoice:    {def: "alloy", ref: func(f *File) *string { return &f.TTS.Voice }},
	KeyTTSSpeed:    {def: "1.0", ref: func(f *File) *string { return &f.TTS.Speed }, validate: validSpeed},
	KeyAlbumTitle:  {ref: func(f *File) *string { return &f.Album.Title }},
	KeyAlbumArtist: {ref: func(f *File) *string { return &f.Album.Artist }},
	KeyAlbumName:   {ref: func(f *File) *string { return &f.Album.Name }},
	KeyLogLevel:    {def: "info", ref: func(f *File) *string { return &f.Log.Level }, validate: validLevel},
	KeyLogFormat:   {def: "console", ref: func(f *File) *string { return &f.Log.Format }, validate: validFormat},
	KeyListenAddr:  {def: ":8080", ref: func(f *File) *string { return &f.Server.ListenAddr }},
	KeyPublicURL:   {ref: func(f *File) *string { return &f.Server.PublicURL }},
}

// Keys returns every supported key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Dir returns the configuration directory.
// Uses $XDG_CONFIG_HOME/lingocast if set, otherwise ~/.config/lingocast.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lingocast"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lingocast"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, FileName), nil
}

// Load reads the config file and resolves every key.
// A missing file is not an error.
func Load() (Config, error) {
	f, err := readFile()
	if err != nil {
		return Config{}, err
	}

	v := func(key string) string {
		fl := fields[key]
		if s := *fl.ref(&f); s != "" {
			return s
		}
		if s := os.Getenv(EnvName(key)); s != "" {
			return s
		}
		return fl.def
	}

	cfg := Config{
		ContentDir:  ExpandPath(v(KeyContentDir)),
		CacheDir:    ExpandPath(v(KeyCacheDir)),
		TempDir:     ExpandPath(v(KeyTempDir)),
		OutputDir:   ExpandPath(v(KeyOutputDir)),
		TTSModel:    v(KeyTTSModel),
		TTSVoice:    v(KeyTTSVoice),
		AlbumTitle:  v(KeyAlbumTitle),
		AlbumArtist: v(KeyAlbumArtist),
		AlbumName:   v(KeyAlbumName),
		LogLevel:    v(KeyLogLevel),
		LogFormat:   v(KeyLogFormat),
		ListenAddr:  v(KeyListenAddr),
		PublicURL:   v(KeyPublicURL),
	}
	speed, err := strconv.ParseFloat(v(KeyTTSSpeed), 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidValue, KeyTTSSpeed, err)
	}
	cfg.TTSSpeed = speed
	return cfg, nil
}

// Get returns the value stored in the config file for key.
// Returns an empty string if the key is unset.
func Get(key string) (string, error) {
	fl, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	f, err := readFile()
	if err != nil {
		return "", err
	}
	return *fl.ref(&f), nil
}

// Set validates value and stores it under key, creating the file if needed.
func Set(key, value string) error {
	fl, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if fl.validate != nil {
		if err := fl.validate(value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)
		}
	}

	f, err := readFile()
	if err != nil {
		return err
	}
	*fl.ref(&f) = value
	return writeFile(f)
}

// List returns every key set in the config file.
func List() (map[string]string, error) {
	f, err := readFile()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for key, fl := range fields {
		if s := *fl.ref(&f); s != "" {
			out[key] = s
		}
	}
	return out, nil
}

// Setting is one effective value and where it came from.
type Setting struct {
	Key    string
	Value  string
	Source string // "file", "env", "default" or "" when unset
}

// Describe returns the effective value of every key, sorted by key.
func Describe() ([]Setting, error) {
	f, err := readFile()
	if err != nil {
		return nil, err
	}
	out := make([]Setting, 0, len(fields))
	for _, key := range Keys() {
		fl := fields[key]
		s := Setting{Key: key}
		switch {
		case *fl.ref(&f) != "":
			s.Value, s.Source = *fl.ref(&f), "file"
		case os.Getenv(EnvName(key)) != "":
			s.Value, s.Source = os.Getenv(EnvName(key)), "env"
		case fl.def != "":
			s.Value, s.Source = fl.def, "default"
		}
		out = append(out, s)
	}
	return out, nil
}

func readFile() (File, error) {
	var f File
	p, err := Path()
	if err != nil {
		return f, err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return f, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", p, err)
	}
	return f, nil
}

func writeFile(f File) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil { // #nosec G306 -- config file is not secret
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

func validSpeed(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if v < 0.25 || v > 4 {
		return fmt.Errorf("speed %v outside 0.25..4", v)
	}
	return nil
}

func validLevel(s string) error {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("level %q: want debug, info, warn or error", s)
}

func validFormat(s string) error {
	switch s {
	case "console", "text", "json":
		return nil
	}
	return fmt.Errorf("format %q: want console, text or json", s)
}

// validDir accepts an existing writable directory, creating it if missing.
func validDir(d string) error {
	if d == "" {
		return errors.New("directory cannot be empty")
	}
	d = ExpandPath(d)
	if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
		return fmt.Errorf("cannot create directory: %w", err)
	}
	probe, err := os.CreateTemp(d, ".lingocast-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}

// ResolveOutputPath resolves the final output path:
//  1. an absolute output is used as-is
//  2. a relative output is joined to outputDir when set
//  3. an empty output becomes defaultName in outputDir (or cwd)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	switch {
	case output != "" && filepath.IsAbs(output):
		return filepath.Clean(output)
	case output != "" && outputDir != "":
		return filepath.Clean(filepath.Join(outputDir, output))
	case output != "":
		return filepath.Clean(output)
	case outputDir != "":
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
