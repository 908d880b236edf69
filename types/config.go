package types

// AppConfig represents the complete application configuration, unmarshaled
// from Viper (config file, environment, flags).
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose"`
	JSON    bool          `mapstructure:"json"`
	Project ProjectConfig `mapstructure:"project" validate:"required"`
	Data    DataConfig    `mapstructure:"data" validate:"required"`
	Roster  RosterConfig  `mapstructure:"roster"`
}

// ProjectConfig holds project-level paths.
type ProjectConfig struct {
	RootDir string `mapstructure:"rootDir" validate:"required"`
	DataDir string `mapstructure:"dataDir" validate:"required"`
}

// DataConfig selects the persistence backend for the task collection.
type DataConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	File    string `mapstructure:"file" validate:"required"`
	Format  string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}

// RosterConfig points at the technician roster file. When empty, the
// built-in demo roster is used.
type RosterConfig struct {
	File string `mapstructure:"file"`
}
