package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/neura-neura/sp0t-dl-tg/redact"
)

type Config struct {
	Bot      Bot      `yaml:"bot"`
	Log      Log      `yaml:"log"`
	Session  Session  `yaml:"session"`
	Catalog  Catalog  `yaml:"catalog"`
	License  License  `yaml:"license"`
	Tools    Tools    `yaml:"tools"`
	Delivery Delivery `yaml:"delivery"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("bot", c.Bot.ToDict()).
		Dict("log", c.Log.ToDict()).
		Dict("session", c.Session.ToDict()).
		Dict("catalog", c.Catalog.ToDict()).
		Dict("license", c.License.ToDict()).
		Dict("tools", c.Tools.ToDict()).
		Dict("delivery", c.Delivery.ToDict())
}

func (c *Config) setDefaults() {
	c.Bot.setDefaults()
	c.Log.setDefaults()
	c.Session.setDefaults()
	c.Catalog.setDefaults()
	c.Tools.setDefaults()
	c.Delivery.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Bot.validate(); nil != err {
		return fmt.Errorf("bot config validation failed: %v", err)
	}

	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.Session.validate(); nil != err {
		return fmt.Errorf("session config validation failed: %v", err)
	}

	if err := c.Catalog.validate(); nil != err {
		return fmt.Errorf("catalog config validation failed: %v", err)
	}

	if err := c.Tools.validate(); nil != err {
		return fmt.Errorf("tools config validation failed: %v", err)
	}

	if err := c.Delivery.validate(); nil != err {
		return fmt.Errorf("delivery config validation failed: %v", err)
	}

	return nil
}

// Load reads the YAML file at path (config.yaml when empty), applies defaults
// and validates the result. The bot token is read from BOT_TOKEN.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	b, err := os.ReadFile(path)
	if nil != err {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return parse(b)
}

func parse(b []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(b, &conf); nil != err {
		return nil, fmt.Errorf("decode config file: %v", err)
	}

	conf.Bot.Token = os.Getenv("BOT_TOKEN")
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, err
	}

	return &conf, nil
}

type Bot struct {
	PapaID     int64   `yaml:"papa_id"`
	AllowedIDs []int64 `yaml:"allowed_ids"`
	APIURL     string  `yaml:"api_url"`
	Token      string  `yaml:"-"`
	Username   string  `yaml:"username"`
	ScratchDir string  `yaml:"scratch_dir"`
}

func (c *Bot) ToDict() *zerolog.Event {
	ids := zerolog.Arr()
	for _, id := range c.AllowedIDs {
		ids.Int64(id)
	}

	return zerolog.
		Dict().
		Int64("papa_id", c.PapaID).
		Array("allowed_ids", ids).
		Str("api_url", c.APIURL).
		Str("token", redact.String(c.Token)).
		Str("username", c.Username).
		Str("scratch_dir", c.ScratchDir)
}

func (c *Bot) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}

	if c.ScratchDir == "" {
		c.ScratchDir = "./temp"
	}
}

func (c *Bot) validate() error {
	if c.PapaID == 0 {
		return errors.New("papa_id is required")
	}

	if c.Token == "" {
		return errors.New("make sure the BOT_TOKEN environment variable is set")
	}

	if i, err := os.Stat(c.ScratchDir); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return errors.New("scratch_dir does not exist")
		}

		return fmt.Errorf("failed to stat scratch_dir: %v", err)
	} else if !i.IsDir() {
		return errors.New("scratch_dir must be a directory")
	}

	return nil
}

// IsAllowed reports whether id may use the bot. Papa is always allowed.
func (c *Bot) IsAllowed(id int64) bool {
	return id == c.PapaID || slices.Contains(c.AllowedIDs, id)
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "pretty"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: trace, debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty"}, c.Format) {
		return fmt.Errorf("format must be 'json' or 'pretty', got: %s", c.Format)
	}

	return nil
}

type Session struct {
	CookiesFile    string `yaml:"cookies_file"`
	IdentityCookie string `yaml:"identity_cookie"`
	TOTPSecret     string `yaml:"-"`
	TOTPVersion    int    `yaml:"totp_version"`
	TokenURL       string `yaml:"token_url"`
	ClientTokenURL string `yaml:"client_token_url"`
	ClientVersion  string `yaml:"client_version"`
	Timeout        int    `yaml:"timeout"`
	RenewInterval  int    `yaml:"renew_interval"`
}

func (c *Session) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("cookies_file", c.CookiesFile).
		Str("identity_cookie", c.IdentityCookie).
		Str("totp_secret", redact.String(c.TOTPSecret)).
		Int("totp_version", c.TOTPVersion).
		Str("token_url", c.TokenURL).
		Str("client_token_url", c.ClientTokenURL).
		Str("client_version", c.ClientVersion).
		Int("timeout", c.Timeout).
		Int("renew_interval", c.RenewInterval)
}

func (c *Session) setDefaults() {
	if c.TOTPSecret == "" {
		c.TOTPSecret = os.Getenv("TOTP_SECRET")
	}

	if c.CookiesFile == "" {
		c.CookiesFile = "./cookies.txt"
	}

	if c.Timeout == 0 {
		c.Timeout = 10
	}

	if c.RenewInterval == 0 {
		c.RenewInterval = 1800
	}
}

func (c *Session) validate() error {
	if c.TokenURL == "" {
		return errors.New("token_url is required")
	}

	if c.TOTPSecret == "" {
		return errors.New("make sure the TOTP_SECRET environment variable is set")
	}

	if c.IdentityCookie != "" && c.ClientTokenURL == "" {
		return errors.New("client_token_url is required when identity_cookie is set")
	}

	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}

	if c.RenewInterval < 60 {
		return errors.New("renew_interval must be at least 60 seconds")
	}

	return nil
}

func (c *Session) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Catalog holds the catalog service endpoints and persisted query ids.
type Catalog struct {
	QueryURL          string          `yaml:"query_url"`
	ManifestURLFormat string          `yaml:"manifest_url_format"`
	StorageURLFormat  string          `yaml:"storage_url_format"`
	URINamespace      string          `yaml:"uri_namespace"`
	EligibleProduct   string          `yaml:"eligible_product"`
	Queries           CatalogQueries  `yaml:"queries"`
	Timeouts          CatalogTimeouts `yaml:"timeouts"`
}

func (c *Catalog) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("query_url", c.QueryURL).
		Str("manifest_url_format", c.ManifestURLFormat).
		Str("storage_url_format", c.StorageURLFormat).
		Str("uri_namespace", c.URINamespace).
		Str("eligible_product", c.EligibleProduct).
		Dict("timeouts", c.Timeouts.ToDict())
}

func (c *Catalog) setDefaults() {
	if c.EligibleProduct == "" {
		c.EligibleProduct = "premium"
	}

	c.Timeouts.setDefaults()
}

func (c *Catalog) validate() error {
	if c.QueryURL == "" {
		return errors.New("query_url is required")
	}

	if c.ManifestURLFormat == "" {
		return errors.New("manifest_url_format is required")
	}

	if c.StorageURLFormat == "" {
		return errors.New("storage_url_format is required")
	}

	return nil
}

// CatalogQueries maps each operation name to its persisted query hash.
type CatalogQueries struct {
	Track             string `yaml:"track"`
	AlbumTracks       string `yaml:"album_tracks"`
	Playlist          string `yaml:"playlist"`
	Search            string `yaml:"search"`
	AccountAttributes string `yaml:"account_attributes"`
	ProfileAttributes string `yaml:"profile_attributes"`
}

type CatalogTimeouts struct {
	Query     int `yaml:"query"`
	Manifest  int `yaml:"manifest"`
	Cover     int `yaml:"cover"`
	StreamURL int `yaml:"stream_url"`
	Download  int `yaml:"download"`
}

func (c *CatalogTimeouts) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("query", c.Query).
		Int("manifest", c.Manifest).
		Int("cover", c.Cover).
		Int("stream_url", c.StreamURL).
		Int("download", c.Download)
}

func (c *CatalogTimeouts) setDefaults() {
	if c.Query == 0 {
		c.Query = 10
	}

	if c.Manifest == 0 {
		c.Manifest = 10
	}

	if c.Cover == 0 {
		c.Cover = 10
	}

	if c.StreamURL == 0 {
		c.StreamURL = 10
	}

	if c.Download == 0 {
		c.Download = 300
	}
}

type License struct {
	SeekTableURLFormat string `yaml:"seek_table_url_format"`
	LicenseURL         string `yaml:"license_url"`
	DeviceProfile      string `yaml:"device_profile"`
	Timeout            int    `yaml:"timeout"`
}

func (c *License) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("seek_table_url_format", c.SeekTableURLFormat).
		Str("license_url", c.LicenseURL).
		Str("device_profile", c.DeviceProfile).
		Int("timeout", c.Timeout)
}

func (c *License) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}

	return time.Duration(c.Timeout) * time.Second
}

type Tools struct {
	UnprotectPath    string `yaml:"unprotect_path"`
	TranscodePath    string `yaml:"transcode_path"`
	UnprotectTimeout int    `yaml:"unprotect_timeout"`
	TranscodeTimeout int    `yaml:"transcode_timeout"`
}

func (c *Tools) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("unprotect_path", c.UnprotectPath).
		Str("transcode_path", c.TranscodePath).
		Int("unprotect_timeout", c.UnprotectTimeout).
		Int("transcode_timeout", c.TranscodeTimeout)
}

func (c *Tools) setDefaults() {
	if c.UnprotectPath == "" {
		c.UnprotectPath = "mp4decrypt"
	}

	if c.TranscodePath == "" {
		c.TranscodePath = "ffmpeg"
	}

	if c.UnprotectTimeout == 0 {
		c.UnprotectTimeout = 120
	}

	if c.TranscodeTimeout == 0 {
		c.TranscodeTimeout = 300
	}
}

func (c *Tools) validate() error {
	if c.UnprotectTimeout < 0 || c.TranscodeTimeout < 0 {
		return errors.New("tool timeouts must not be negative")
	}

	return nil
}

type Delivery struct {
	Attempts       int `yaml:"attempts"`
	InitialBackoff int `yaml:"initial_backoff"`
	AssetPause     int `yaml:"asset_pause"`
}

func (c *Delivery) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("attempts", c.Attempts).
		Int("initial_backoff", c.InitialBackoff).
		Int("asset_pause", c.AssetPause)
}

func (c *Delivery) setDefaults() {
	if c.Attempts == 0 {
		c.Attempts = 5
	}

	if c.InitialBackoff == 0 {
		c.InitialBackoff = 5
	}

	if c.AssetPause == 0 {
		c.AssetPause = 2
	}
}

func (c *Delivery) validate() error {
	if c.Attempts < 1 {
		return errors.New("attempts must be at least 1")
	}

	if c.InitialBackoff < 1 {
		return errors.New("initial_backoff must be at least 1")
	}

	return nil
}
