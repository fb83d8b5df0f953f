package calendar

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prophetd/prophetd/internal/models"
)

// holidayFile is the YAML shape for a holiday table:
//
//	holidays:
//	  - name: NewYear
//	    date: 2023-01-01
//	    lower_window: -1
//	    upper_window: 0
type holidayFile struct {
	Holidays []holidayFileRow `yaml:"holidays"`
}

type holidayFileRow struct {
	Name        string   `yaml:"name"`
	Date        string   `yaml:"date"`
	LowerWindow int      `yaml:"lower_window"`
	UpperWindow int      `yaml:"upper_window"`
	PriorScale  *float64 `yaml:"prior_scale"`
}

// LoadFile reads a HolidaySpec from a YAML file. Window fields default to
// zero when absent; name and date are required per row.
func LoadFile(path string) (models.HolidaySpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigurationError("read holiday file %s: %v", path, err)
	}
	return ParseYAML(raw)
}

// ParseYAML parses a YAML holiday table.
func ParseYAML(raw []byte) (models.HolidaySpec, error) {
	var file holidayFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, models.NewConfigurationError("parse holiday file: %v", err)
	}

	spec := make(models.HolidaySpec, 0, len(file.Holidays))
	for i, row := range file.Holidays {
		if row.Name == "" {
			return nil, models.NewConfigurationError("holiday file row %d: missing name", i)
		}
		if row.Date == "" {
			return nil, models.NewConfigurationError("holiday file row %d (%s): missing date", i, row.Name)
		}
		date, err := time.ParseInLocation("2006-01-02", row.Date, time.UTC)
		if err != nil {
			return nil, models.NewConfigurationError("holiday file row %d (%s): bad date %q", i, row.Name, row.Date)
		}
		spec = append(spec, models.HolidayOccurrence{
			Name:        row.Name,
			Date:        date,
			LowerWindow: row.LowerWindow,
			UpperWindow: row.UpperWindow,
			PriorScale:  row.PriorScale,
		})
	}
	return spec, nil
}
