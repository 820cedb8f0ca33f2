package extraction

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tractcoords/internal/models"
	"tractcoords/pkg/catalog"
	"tractcoords/pkg/geometry"
	"tractcoords/pkg/table"
)

// BatchResult is the outcome of extracting a catalog of base tracts.
type BatchResult struct {
	// Table holds one row per present tract, in catalog order
	Table table.Table

	// Missing lists catalog entries whose label yielded no landmark
	Missing []catalog.Entry
}

// ExtractBaseTracts extracts every catalog entry from volume. Regions are
// processed by up to workers goroutines (NumCPU when workers <= 0); rows and
// diagnostics are still emitted in catalog order. An empty region is logged
// and skipped. The only error is cancellation of ctx.
func ExtractBaseTracts(ctx context.Context, volume *models.LabeledVolume, affine geometry.Affine, entries []catalog.Entry, workers int) (BatchResult, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "extract").Logger()

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	groups := volume.VoxelsByLabel()

	type slot struct {
		landmark models.Landmark
		ok       bool
	}
	slots := make([]slot, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lm, ok := landmarkFromVoxels(groups[e.Label], affine)
			slots[i] = slot{landmark: lm, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for i, e := range entries {
		if !slots[i].ok {
			log.Warn().Str("roi", e.Name).Int32("label", e.Label).Msg("region has no voxels")
			res.Missing = append(res.Missing, e)
			continue
		}
		res.Table = append(res.Table, models.NewTractRow(e.Name, slots[i].landmark))
		log.Debug().Str("roi", e.Name).Int("voxels", len(groups[e.Label])).Msg("tract complete")
	}
	return res, nil
}
