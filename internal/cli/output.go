package cli

import (
	"encoding/json"
	"fmt"
	"io"

	galleonsql "github.com/NerdMeNot/galleon-sql"
	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/eager/galleondf"
	"github.com/NerdMeNot/galleon-sql/eager/rowdf"
)

// writeFrame collects lf and writes it to w in the configured format.
func (o *RootOptions) writeFrame(w io.Writer, lf *galleonsql.LazyFrame) error {
	switch o.Format {
	case "json":
		df, err := lf.Collect(compliant.ImplementationRows)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(df.(*rowdf.DataFrame).Records())
	default:
		df, err := lf.Collect(compliant.ImplementationGalleon)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, df.(*galleondf.DataFrame).Native().StringWithConfig(o.config.Display))
		return err
	}
}

// schemaEntry is one column in JSON schema output.
type schemaEntry struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
}

// writeSchema writes the schema of lf to w in the configured format.
func (o *RootOptions) writeSchema(w io.Writer, lf *galleonsql.LazyFrame) error {
	schema, err := lf.Schema()
	if err != nil {
		return err
	}
	names, dtypes := schema.Names(), schema.DTypes()

	if o.Format == "json" {
		entries := make([]schemaEntry, len(names))
		for i := range names {
			entries[i] = schemaEntry{Name: names[i], DType: dtypes[i].String()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	for i := range names {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, names[i], dtypes[i]); err != nil {
			return err
		}
	}
	return nil
}
