// Copyright 2024-2026 Aiku AI

package bridge

import (
	_ "embed"
	"fmt"
	"os"

	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config is the static bridge configuration, loaded once at startup.
type Config struct {
	Matrix  MatrixConfig  `yaml:"matrix"`
	Discord DiscordConfig `yaml:"discord"`

	// CredentialsPath is the file where the Matrix session credential
	// bundle is persisted across restarts.
	CredentialsPath string `yaml:"credentials_path"`
	// AvatarExtensions is the ordered list of image extensions recognized
	// when sanitizing avatar URLs. Order matters: the first extension found
	// in a URL wins.
	AvatarExtensions []string `yaml:"avatar_extensions"`

	Logging zeroconfig.Config `yaml:"logging"`
}

// MatrixConfig configures the Matrix side of the bridge.
type MatrixConfig struct {
	HomeserverURL string `yaml:"homeserver_url"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DeviceName    string `yaml:"device_name"`
	RoomID        string `yaml:"room_id"`
	// Avatar thumbnails are requested from the content repository at this
	// size with the "scale" method.
	AvatarResizeWidth  int `yaml:"avatar_resize_width"`
	AvatarResizeHeight int `yaml:"avatar_resize_height"`
}

// DiscordConfig configures the Discord side of the bridge.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
	// WebhookName is the name of the send-proxy webhook to reuse or create
	// in the bridged channel. Leave empty to disable impersonation and send
	// embeds under the bot's own identity instead.
	WebhookName string `yaml:"webhook_name"`
}

// defaultAvatarExtensions is used when the config lists none.
var defaultAvatarExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// LoadConfig reads, decodes and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Matrix.DeviceName == "" {
		c.Matrix.DeviceName = "matrix-discord-bridge"
	}
	if c.Matrix.AvatarResizeWidth <= 0 {
		c.Matrix.AvatarResizeWidth = 96
	}
	if c.Matrix.AvatarResizeHeight <= 0 {
		c.Matrix.AvatarResizeHeight = 96
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = "credentials.json"
	}
	if len(c.AvatarExtensions) == 0 {
		c.AvatarExtensions = defaultAvatarExtensions
	}
	if len(c.Logging.Writers) == 0 {
		c.Logging.Writers = []zeroconfig.WriterConfig{{
			Type:   zeroconfig.WriterTypeStdout,
			Format: zeroconfig.LogFormatPrettyColored,
		}}
	}
}

// Validate checks that every field the bridge cannot run without is set.
func (c *Config) Validate() error {
	switch {
	case c.Matrix.HomeserverURL == "":
		return fmt.Errorf("matrix.homeserver_url is required")
	case c.Matrix.User == "":
		return fmt.Errorf("matrix.user is required")
	case c.Matrix.Password == "":
		return fmt.Errorf("matrix.password is required")
	case c.Matrix.RoomID == "":
		return fmt.Errorf("matrix.room_id is required")
	case c.Discord.Token == "":
		return fmt.Errorf("discord.token is required")
	case c.Discord.ChannelID == "":
		return fmt.Errorf("discord.channel_id is required")
	}
	return nil
}
