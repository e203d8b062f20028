package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rundb/internal/calib"
)

// TableInfo is the JSON payload describing one calibration table.
type TableInfo struct {
	Path    string       `json:"path"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Comment string       `json:"comment,omitempty"`
}

// ColumnInfo describes one typed column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DirInfo is the JSON payload describing one namespace directory.
type DirInfo struct {
	Path   string   `json:"path"`
	Dirs   []string `json:"dirs"`
	Tables []string `json:"tables"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <calibration-db> [path]",
		Short: "Inspect the calibration namespace",
		Long: `List directories and tables under a namespace path, or describe a
table's typed columns when the path names a table. With no path the root
directory is listed.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}
			return runInfo(rootOpts, args[0], path, cmd)
		},
	}
	return cmd
}

func runInfo(opts *RootOptions, dbPath, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := calib.Open(dbPath)
	if err != nil {
		return formatter.Fail(err)
	}
	defer db.Close()
	formatter.VerboseLog("opened %s (session %s)", dbPath, db.Session())

	// A path naming a table wins over a same-named directory.
	if table, err := db.Table(path); err == nil {
		return outputTableInfo(formatter, table)
	}

	dir, err := db.Dir(path)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputDirInfo(formatter, dir)
}

func outputTableInfo(formatter *OutputFormatter, table calib.Table) error {
	columns, err := table.Columns()
	if err != nil {
		return formatter.Fail(err)
	}
	info := TableInfo{
		Path:    table.FullPath(),
		Rows:    table.NRows(),
		Comment: table.Comment(),
	}
	for _, col := range columns {
		info.Columns = append(info.Columns, ColumnInfo{Name: col.Name, Type: string(col.Type)})
	}

	if formatter.Format == "json" {
		return formatter.Success(info)
	}
	fmt.Fprintf(formatter.Writer, "%s (%d rows)\n", info.Path, info.Rows)
	if info.Comment != "" {
		fmt.Fprintf(formatter.Writer, "  %s\n", info.Comment)
	}
	for _, col := range info.Columns {
		fmt.Fprintf(formatter.Writer, "  %-24s %s\n", col.Name, col.Type)
	}
	return nil
}

func outputDirInfo(formatter *OutputFormatter, dir calib.Directory) error {
	info := DirInfo{Path: dir.FullPath(), Dirs: []string{}, Tables: []string{}}
	for _, sub := range dir.Dirs() {
		info.Dirs = append(info.Dirs, sub.Name())
	}
	for _, table := range dir.Tables() {
		info.Tables = append(info.Tables, table.Name())
	}

	if formatter.Format == "json" {
		return formatter.Success(info)
	}
	fmt.Fprintln(formatter.Writer, info.Path)
	for _, name := range info.Dirs {
		fmt.Fprintf(formatter.Writer, "  %s/\n", name)
	}
	for _, name := range info.Tables {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	if len(info.Dirs) == 0 && len(info.Tables) == 0 {
		fmt.Fprintln(formatter.Writer, "  (empty)")
	}
	return nil
}
