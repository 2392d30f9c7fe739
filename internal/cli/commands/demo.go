package commands

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	ps "github.com/reoring/pulsarschema"
	"github.com/reoring/pulsarschema/codec"
)

type demoColor int

const (
	demoRed demoColor = iota
	demoGreen
	demoBlue
)

func demoTypes() (*ps.RecordType, *ps.Record) {
	color := ps.NewEnum("Color",
		ps.Member("red", demoRed), ps.Member("green", demoGreen), ps.Member("blue", demoBlue)).
		WithDoc("primary colors")
	point := ps.NewRecord("Point").
		Field("x", ps.Double(ps.Required())).
		Field("y", ps.Double(ps.Required())).
		MustBuild()
	shape := ps.NewRecord("Shape").Namespace("demo.shapes").Doc("a labelled polygon").
		FieldDoc("name", "display label", ps.String(ps.Required())).
		Field("color", ps.EnumOf(color, ps.Required(), ps.Default(demoRed), ps.RequiredDefault())).
		Field("points", ps.Array(ps.RecordOf(point))).
		Field("tags", ps.Map(ps.String())).
		Field("filled", ps.Boolean(ps.Required(), ps.RequiredDefault())).
		Field("parent", ps.Self()).
		MustBuild()

	sample := shape.MustNew(map[string]any{
		"name":   "triangle",
		"color":  "blue",
		"points": []any{map[string]any{"x": 0, "y": 0}, map[string]any{"x": 1, "y": 0}, map[string]any{"x": 0, "y": 1}},
		"tags":   map[string]any{"kind": "example"},
	})
	return shape, sample
}

func newDeriveDemoCommand() *cobra.Command {
	var withSample bool
	cmd := &cobra.Command{
		Use:   "derive-demo",
		Short: "Print the schema derived from a built-in example record type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, sample := demoTypes()
			doc, err := rt.SchemaJSON()
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, doc, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			if withSample {
				text, err := codec.JSON(rt).Encode(cmd.Context(), sample)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(text))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSample, "sample", false, "also print a sample record in the text format")
	return cmd
}
