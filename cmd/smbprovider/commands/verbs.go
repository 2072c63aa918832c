package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/absfs/smbprovider/fsprovider"
)

func kindOf(directory bool) string {
	if directory {
		return "dir"
	}
	return "file"
}

func (a *app) statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "Show size, type and modification time of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				info, err := p.Stat(args[0])
				if err != nil {
					return err
				}

				t := newTableData("PATH", "TYPE", "SIZE", "MODIFIED")
				if info.Exists() {
					t.addRow(info.Path, kindOf(info.IsDirectory()), formatSize(info.Size), formatMillis(info.LastModified))
				} else {
					t.addRow(info.Path, "missing", "", "")
				}
				return out.print(info, t)
			})
		},
	}
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [PATH]",
		Short: "List the direct children of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "/"
			if len(args) == 1 {
				name = args[0]
			}

			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				res, err := p.Browse(name)
				if err != nil {
					return err
				}
				if !res.Exists {
					return fmt.Errorf("%s: no such file or directory", name)
				}

				t := newTableData("PATH", "TYPE", "SIZE")
				if !res.Directory {
					t.addRow(res.FullPath, kindOf(false), formatSize(res.Size))
				}
				for _, c := range res.Children {
					t.addRow(c.FullPath, kindOf(c.Directory), formatSize(c.Size))
				}
				return out.print(res, t)
			})
		},
	}
}

func (a *app) enumerateCmd() *cobra.Command {
	var firstNonEmpty bool

	cmd := &cobra.Command{
		Use:   "enumerate [PATH]",
		Short: "List every file below a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "/"
			if len(args) == 1 {
				name = args[0]
			}

			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				entries, err := p.Enumerate(name, firstNonEmpty)
				if err != nil {
					return err
				}
				if entries == nil {
					return fmt.Errorf("%s: no such file or directory", name)
				}

				t := newTableData("PATH", "SIZE", "MODIFIED")
				for _, e := range entries {
					t.addRow(e.Path, formatSize(e.Size), formatMillis(e.LastModified))
				}
				return out.print(entries, t)
			})
		},
	}
	cmd.Flags().BoolVar(&firstNonEmpty, "first-non-empty", false, "stop after the first file holding data")
	return cmd
}

func (a *app) catCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Write the contents of a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				return p.Read(args[0], cmd.OutOrStdout(), limit)
			})
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 0, "copy at most this many bytes (0 = whole file)")
	return cmd
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put PATH [LOCAL]",
		Short: "Upload LOCAL (or stdin) to PATH, creating parent directories",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				return p.Write(args[0], src)
			})
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH",
		Short: "Delete a file or a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				n, err := p.DeleteRecursive(args[0])
				if err != nil {
					return err
				}

				t := newTableData("PATH", "DELETED")
				t.addRow(args[0], strconv.Itoa(n))
				return out.print(map[string]any{"path": args[0], "deleted": n}, t)
			})
		},
	}
}

func (a *app) mvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv FROM TO",
		Short: "Move or rename a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				ok, err := p.Move(args[0], args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s: no such file or directory", args[0])
				}
				return nil
			})
		},
	}
}

func (a *app) touchCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "touch PATH",
		Short: "Set the modification time of an existing path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := parseTime(at)
			if err != nil {
				return err
			}

			return a.withProvider(cmd, func(p fsprovider.Provider, out *printer) error {
				ok, err := p.SetLastModified(args[0], ms)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s: modification time not changed", args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "time", "", "RFC 3339 time or epoch milliseconds (default: now)")
	return cmd
}

func parseTime(s string) (int64, error) {
	if s == "" {
		return time.Now().UnixMilli(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}
