package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveytab/internal/parser"
)

var (
	colSearch     string
	colSheetName  string
	colSheetIndex int
)

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List the questions of a survey file and how many respondents answered each",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lo := parser.LoadOptions{SheetName: colSheetName, SheetIndex: colSheetIndex}
		if lo.SheetName == "" && lo.SheetIndex <= 0 && cfg != nil {
			lo.SheetIndex = cfg.DefaultSheetIndex
		}
		tbl, err := loadSanitized(args[0], lo)
		if err != nil {
			return err
		}
		printColumns(cmd.OutOrStdout(), tbl, colSearch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().StringVarP(&colSearch, "search", "s", "", "case-insensitive substring filter on question names")
	columnsCmd.Flags().StringVar(&colSheetName, "sheet-name", "", "XLSX: sheet name to read")
	columnsCmd.Flags().IntVar(&colSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
