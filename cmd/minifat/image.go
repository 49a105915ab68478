package main

import (
	"fmt"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/fusefs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func createCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a new formatted image, an existing image is replaced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := a.store.Create(a.config.Image, minifat.Config{
				Size:        a.config.Size,
				ClusterSize: a.config.ClusterSize,
			})
			if err != nil {
				return fmt.Errorf("failed to create %q: %w", a.config.Image, err)
			}

			layout := vol.Layout()
			log.Infof("Created %s with %d clusters of %d bytes", a.config.Image, layout.ClusterCount, layout.ClusterSize)
			return nil
		},
	}

	return cmd
}

func formatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "delete all files of the image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.modify(func(vol *minifat.Volume) error {
				vol.Format()
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to format %q: %w", a.config.Image, err)
			}
			log.Infof("Formatted %s", a.config.Image)
			return nil
		},
	}

	return cmd
}

func cloneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone DESTINATION",
		Short: "copy the image to a new path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.store.Clone(a.config.Image, args[0], minifat.Config{ClusterSize: a.config.ClusterSize})
			if err != nil {
				return fmt.Errorf("failed to clone %q: %w", a.config.Image, err)
			}
			log.Infof("Cloned %s to %s", a.config.Image, args[0])
			return nil
		},
	}

	return cmd
}

func destroyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "remove the image file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Remove(a.config.Image); err != nil {
				return fmt.Errorf("failed to destroy %q: %w", a.config.Image, err)
			}
			log.Infof("Removed %s", a.config.Image)
			return nil
		},
	}

	return cmd
}

func mountCmd(a *app) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mount DIR",
		Short: "mount the image read-only until it is unmounted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := a.load()
			if err != nil {
				return err
			}

			server, err := fusefs.Mount(args[0], vol, fusefs.Options{
				Debug: debug,
				Log:   log.StandardLogger(),
			})
			if err != nil {
				return err
			}
			log.Infof("Unmount with: fusermount -u %s", args[0])
			server.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Print all FUSE requests")

	return cmd
}
