package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafermap/wafermap/wafer"
)

var (
	unitScale float64 // Multiplier from file units to mm
	classCol  string  // Explicit defect class column header
)

// defectGroup is one class of the defects output.
type defectGroup struct {
	Class   string         `json:"class"`
	Count   int            `json:"count"`
	Defects []wafer.Defect `json:"defects"`
}

var defectsCmd = &cobra.Command{
	Use:   "defects",
	Short: "Read a defect inspection file and group defects by class",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDefects(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("defects: %v", err)
		}
	},
}

func runDefects(out io.Writer) error {
	table, err := wafer.LoadTable(inputFile)
	if err != nil {
		return err
	}
	mapping := columnMapping()
	if classCol != "" {
		mapping[wafer.FieldClass] = classCol
	}
	defects, err := table.Defects(mapping, unitScale)
	if err != nil {
		return err
	}

	classes, byClass := wafer.GroupDefects(defects)
	groups := make([]defectGroup, len(classes))
	for i, c := range classes {
		groups[i] = defectGroup{Class: c, Count: len(byClass[c]), Defects: byClass[c]}
	}
	return writeJSON(out, struct {
		Total   int           `json:"total"`
		Classes []defectGroup `json:"classes"`
	}{len(defects), groups})
}

func init() {
	defectsCmd.Flags().StringVar(&inputFile, "file", "", "Defect CSV with x, y and optional class, size, description columns")
	_ = defectsCmd.MarkFlagRequired("file")
	defectsCmd.Flags().Float64Var(&unitScale, "unit-scale", 1, "Multiplier converting file coordinates to mm (e.g. 0.001 for µm)")
	defectsCmd.Flags().StringVar(&classCol, "class-col", "", "Header of the class column (default: class, type or category)")
	addColumnFlags(defectsCmd)
	rootCmd.AddCommand(defectsCmd)
}
