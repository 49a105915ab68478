package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/imagefile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// GlobalConfig is the global tool configuration.
// Flags which are set explicitly override it.
type GlobalConfig struct {
	Image               string `yaml:"image"`
	Size                int    `yaml:"size"`
	ClusterSize         int    `yaml:"cluster-size"`
	AllowDuplicateNames bool   `yaml:"allow-duplicate-names"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".minifat", "config.yml")
}

// readConfig reads the config file at path into cfg. A missing file is no error.
func readConfig(fsys afero.Fs, path string, cfg *GlobalConfig) error {
	if path == "" {
		return nil
	}
	cfgBytes, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(cfgBytes, cfg); err != nil {
		return fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return nil
}

// app holds the state shared by all commands.
type app struct {
	store  *imagefile.Store
	config GlobalConfig
}

// applyFlags overrides the config with all flags which are set explicitly
// and fills values the config does not contain with the flag defaults.
func (a *app) applyFlags(flags *pflag.FlagSet, defaults GlobalConfig) {
	if flags.Changed("image") || a.config.Image == "" {
		a.config.Image = defaults.Image
	}
	if flags.Changed("size") || a.config.Size == 0 {
		a.config.Size = defaults.Size
	}
	if flags.Changed("cluster-size") || a.config.ClusterSize == 0 {
		a.config.ClusterSize = defaults.ClusterSize
	}
	if flags.Changed("allow-duplicate-names") {
		a.config.AllowDuplicateNames = defaults.AllowDuplicateNames
	}
}

// load loads the configured image. The size is taken from the file.
func (a *app) load() (*minifat.Volume, error) {
	return a.store.Load(a.config.Image, minifat.Config{ClusterSize: a.config.ClusterSize})
}

// modify loads the image, applies fn and saves the image if fn succeeds.
func (a *app) modify(fn func(vol *minifat.Volume) error) error {
	vol, err := a.load()
	if err != nil {
		return err
	}
	if err := fn(vol); err != nil {
		return err
	}
	return a.store.Save(a.config.Image, vol)
}

func newCmd(store *imagefile.Store) *cobra.Command {
	var (
		flagQuiet       bool
		flagVerbose     int
		flagVerboseName = "verbose"
		configPath      string
		flagValues      GlobalConfig
	)
	a := &app{store: store}

	cmd := &cobra.Command{
		Use:               "minifat",
		Short:             "manage single cluster file volume images",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Set up logging
			if err := setupLogging(flagQuiet, flagVerbose, cmd.Flag(flagVerboseName).Changed); err != nil {
				return err
			}

			if err := readConfig(store.Fs, configPath, &a.config); err != nil {
				return err
			}
			a.applyFlags(cmd.Flags(), flagValues)

			store.Options = &minifat.Options{
				AllowDuplicateNames: a.config.AllowDuplicateNames,
				Logger:              log.StandardLogger(),
			}
			store.Log = log.StandardLogger()

			log.WithField("image", a.config.Image).Debug("using image")
			return nil
		},
	}

	cmd.AddCommand(createCmd(a))
	cmd.AddCommand(formatCmd(a))
	cmd.AddCommand(writeCmd(a))
	cmd.AddCommand(readCmd(a))
	cmd.AddCommand(updateCmd(a))
	cmd.AddCommand(rmCmd(a))
	cmd.AddCommand(mvCmd(a))
	cmd.AddCommand(lsCmd(a))
	cmd.AddCommand(statsCmd(a))
	cmd.AddCommand(cloneCmd(a))
	cmd.AddCommand(destroyCmd(a))
	cmd.AddCommand(mountCmd(a))

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", defaultConfigPath(), "Path of the YAML config file")
	flags.StringVarP(&flagValues.Image, "image", "i", "minifat.img", "Path of the image file")
	flags.IntVar(&flagValues.Size, "size", minifat.DefaultSize, "Size of new images in bytes")
	flags.IntVar(&flagValues.ClusterSize, "cluster-size", minifat.DefaultClusterSize, "Cluster size in bytes, it is not stored in the image and has to match on every use")
	flags.BoolVar(&flagValues.AllowDuplicateNames, "allow-duplicate-names", false, "Allow writing a name which already exists, which creates a second entry")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet execution")
	flags.IntVarP(&flagVerbose, flagVerboseName, "v", 1, "Verbosity of logging: 0 = quiet, 1 = info, 2 = debug, 3 = trace. Default is info. Setting it explicitly will create structured logging lines.")

	return cmd
}
