// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/vector"
	"github.com/roadworksco/milepost/pkg/vector/chroma"
	"github.com/roadworksco/milepost/pkg/vector/qdrant"
	"github.com/roadworksco/milepost/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	ProviderType string

	// TargetURL is the server URL for chroma and qdrant, or the database
	// file path for sqlitevec.
	TargetURL string

	CollectionName string
	Dimensions     uint
	Logger         *zap.Logger
}

func NewDriver(o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Target:         o.TargetURL,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
