package catalog

import (
	"context"
	"fmt"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/repository"
	raceRepo "github.com/mpapenbr/pitstop-strategy-manager/pkg/repository/race"
)

// Source provides race definitions. Sources are only read while the catalog
// is built.
type Source interface {
	Name() string
	Races(ctx context.Context) ([]*model.Race, error)
}

type (
	builtinSource struct{}
	yamlSource    struct{ path string }
	dbSource      struct{ conn repository.Querier }
)

func FromBuiltin() Source                        { return builtinSource{} }
func FromYAMLFile(path string) Source            { return yamlSource{path: path} }
func FromDatabase(conn repository.Querier) Source { return dbSource{conn: conn} }

func (builtinSource) Name() string { return "builtin" }

func (builtinSource) Races(context.Context) ([]*model.Race, error) {
	return BuiltinRaces(), nil
}

func (s yamlSource) Name() string { return "file:" + s.path }

func (s yamlSource) Races(context.Context) ([]*model.Race, error) {
	return LoadYAMLFile(s.path)
}

func (dbSource) Name() string { return "database" }

func (s dbSource) Races(ctx context.Context) ([]*model.Race, error) {
	return raceRepo.LoadAll(ctx, s.conn)
}

// Load builds a catalog from all sources in the given order.
// A race_id provided by more than one source is an error.
func Load(ctx context.Context, sources ...Source) (*Catalog, error) {
	l := log.Default().Named("catalog")
	all := make([]*model.Race, 0)
	for _, src := range sources {
		races, err := src.Races(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog source %s: %w", src.Name(), err)
		}
		l.Info("loaded races", log.String("source", src.Name()), log.Int("count", len(races)))
		all = append(all, races...)
	}
	return New(all...)
}
