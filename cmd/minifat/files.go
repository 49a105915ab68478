package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aligator/minifat"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// readContent returns the content given as second argument, read from the host file
// or read from stdin if neither is given or the argument is "-".
func readContent(cmd *cobra.Command, fsys afero.Fs, args []string, file string) ([]byte, error) {
	switch {
	case file != "" && len(args) > 1:
		return nil, errors.New("content argument and --file can't be used together")
	case file != "":
		return afero.ReadFile(fsys, file)
	case len(args) > 1 && args[1] != "-":
		return []byte(args[1]), nil
	default:
		return io.ReadAll(cmd.InOrStdin())
	}
}

func writeCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "write NAME [CONTENT]",
		Short: "write a new file",
		Long: `Write a new file to the image.
The content is read from stdin if it is neither passed as argument nor with --file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, a.store.Fs, args, file)
			if err != nil {
				return err
			}

			err = a.modify(func(vol *minifat.Volume) error {
				return vol.Write(args[0], content)
			})
			if err != nil {
				return fmt.Errorf("failed to write %q: %w", args[0], err)
			}
			log.Infof("Wrote %d bytes to %s", len(content), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the content from this host file")

	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update NAME [CONTENT]",
		Short: "replace the content of an existing file",
		Long: `Replace the content of an existing file.
The content is read from stdin if it is neither passed as argument nor with --file.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, a.store.Fs, args, file)
			if err != nil {
				return err
			}

			err = a.modify(func(vol *minifat.Volume) error {
				return vol.Update(args[0], content)
			})
			if err != nil {
				return fmt.Errorf("failed to update %q: %w", args[0], err)
			}
			log.Infof("Updated %s with %d bytes", args[0], len(content))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the content from this host file")

	return cmd
}

func readCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "read NAME",
		Short: "print the content of a file",
		Long: `Print the content of a file as text.
Bytes which are no valid UTF-8 are dropped unless --raw is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := a.load()
			if err != nil {
				return err
			}

			if raw {
				content, err := vol.Read(args[0])
				if err != nil {
					return fmt.Errorf("failed to read %q: %w", args[0], err)
				}
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}

			content, err := vol.ReadString(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored bytes unchanged")

	return cmd
}

func rmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "delete a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.modify(func(vol *minifat.Volume) error {
				return vol.Delete(args[0])
			})
			if err != nil {
				return fmt.Errorf("failed to delete %q: %w", args[0], err)
			}
			log.Infof("Deleted %s", args[0])
			return nil
		},
	}

	return cmd
}

func mvCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv OLD NEW",
		Short: "rename a file, an existing file named NEW is replaced",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.modify(func(vol *minifat.Volume) error {
				return vol.Rename(args[0], args[1])
			})
			if err != nil {
				return fmt.Errorf("failed to rename %q: %w", args[0], err)
			}
			log.Infof("Renamed %s to %s", args[0], args[1])
			return nil
		},
	}

	return cmd
}

func lsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "list all files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := a.load()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tNAME\tSIZE\tCLUSTER")
			for e := range vol.List() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", e.Slot, e.Name, e.FileSize, e.FirstCluster)
			}
			return w.Flush()
		},
	}

	return cmd
}

func statsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print the disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := a.load()
			if err != nil {
				return err
			}

			used, total := vol.Usage()
			files := 0
			for range vol.List() {
				files++
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Disk usage: %d/%d clusters used\n", used, total)
			fmt.Fprintf(out, "Files: %d/%d\n", files, vol.Capacity())
			_, err = fmt.Fprintf(out, "Cluster size: %d bytes\n", vol.Layout().ClusterSize)
			return err
		},
	}

	return cmd
}
