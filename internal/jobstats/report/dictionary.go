package report

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/G-Research/jobstats/internal/common/util"
)

type columnDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Help string `yaml:"help"`
}

// WriteDictionary describes every report column, in output order, as aligned text or as a YAML list.
func WriteDictionary(out io.Writer, asYaml bool) error {
	docs := make([]columnDoc, len(columns))
	for i, c := range columns {
		docs[i] = columnDoc{Name: c.Name, Type: columnType(c), Help: c.Help}
	}

	if asYaml {
		data, err := yaml.Marshal(docs)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = out.Write(data)
		return errors.WithStack(err)
	}

	tsb := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	tsb.Row("COLUMN", "TYPE", "DESCRIPTION")
	for _, doc := range docs {
		tsb.Row(doc.Name, doc.Type, doc.Help)
	}
	_, err := io.WriteString(out, tsb.String())
	return errors.WithStack(err)
}

func columnType(c Column) string {
	if c.Numeric {
		return "number"
	}
	return "string"
}
