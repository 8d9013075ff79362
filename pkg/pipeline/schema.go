package pipeline

import (
	"fmt"

	"albumrank/pkg/album"
	"albumrank/pkg/dataprep"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column kinds.
const (
	KindFloat    = "float"
	KindCategory = "category"
	KindID       = "id"
)

// Schema describes the structure of a dataset.
type Schema struct {
	FeatureNames []string
	Types        []string // KindFloat, KindCategory or KindID
}

// SourceSchema lists the source columns the analysis reads.
func SourceSchema() Schema {
	return Schema{
		FeatureNames: []string{
			album.SortName, album.CleanName, album.Album,
			album.Rank2020, album.ReleaseYear, album.PeakBillboardPosition,
			album.SpotifyPopularity, album.ArtistMemberCount, album.ArtistGender,
			album.ArtistBirthYearSum,
		},
		Types: []string{
			KindID, KindID, KindID,
			KindFloat, KindFloat, KindFloat,
			KindFloat, KindFloat, KindCategory,
			KindFloat,
		},
	}
}

// Validate checks that every column is present and that float columns were
// parsed as numbers.
func (s Schema) Validate(df dataframe.DataFrame) error {
	if err := dataprep.RequireColumns(df, s.FeatureNames...); err != nil {
		return err
	}
	for i, name := range s.FeatureNames {
		if s.Types[i] != KindFloat {
			continue
		}
		if t := df.Col(name).Type(); t != series.Float && t != series.Int {
			return fmt.Errorf("pipeline: column %s has type %s, want %s", name, t, KindFloat)
		}
	}
	return nil
}
