package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tractcoords/internal/models"
	"tractcoords/pkg/atlas"
	"tractcoords/pkg/catalog"
	"tractcoords/pkg/composite"
	"tractcoords/pkg/geometry"
	"tractcoords/pkg/table"
)

// LoadFunc decodes an atlas file into its label grid and affine.
type LoadFunc func(path string) (*models.LabeledVolume, geometry.Affine, error)

// Params holds the parameters of one extraction run.
type Params struct {
	// Search locates the atlas file
	Search atlas.SearchOptions

	// OutputPath receives the final table; .db/.sqlite paths go to the
	// SQLite store, anything else is written as CSV. Empty skips persistence.
	OutputPath string

	// NumCores bounds the number of regions extracted concurrently
	NumCores int

	// Composites enables the derived BCC/CC/IC/CR tracts
	Composites bool

	// Catalog is the list of base tracts; catalog.BaseTracts when nil
	Catalog []catalog.Entry

	// Load decodes the atlas; atlas.LoadNIfTI when nil
	Load LoadFunc
}

// Summary describes a finished run.
type Summary struct {
	AtlasPath            string
	Width, Height, Depth int
	MaxLabel             int32

	BaseTracts      int
	CompositeTracts int
	Missing         []string

	OutputPath string

	// RunID is set when the table went to the SQLite store
	RunID uuid.UUID
}

// Extractor runs the atlas-to-coordinate-table pipeline:
//  1. Locate the atlas among the candidate paths
//  2. Load the label grid and affine
//  3. Extract the base tracts
//  4. Derive the composite tracts
//  5. Assemble and persist the final table
//
// The volume is only held for the duration of Process.
type Extractor struct {
	params *Params

	base       table.Table
	composites []models.TractRow
	final      table.Table

	summary Summary
}

// NewExtractor creates an extractor for params.
func NewExtractor(params *Params) *Extractor {
	return &Extractor{params: params}
}

// Process runs the complete extraction pipeline.
func (e *Extractor) Process(ctx context.Context) error {
	log := zerolog.Ctx(ctx).With().Str("component", "pipeline").Logger()

	entries := e.params.Catalog
	if entries == nil {
		entries = catalog.BaseTracts
	}
	if err := catalog.Validate(entries); err != nil {
		return err
	}

	// Step 1: Locate atlas
	log.Info().Msg("step 1: locating atlas")
	atlasPath, err := atlas.Locate(ctx, e.params.Search)
	if err != nil {
		return err
	}
	e.summary.AtlasPath = atlasPath

	// Step 2: Load labels and affine
	log.Info().Str("path", atlasPath).Msg("step 2: loading atlas")
	load := e.params.Load
	if load == nil {
		load = atlas.LoadNIfTI
	}
	volume, affine, err := load(atlasPath)
	if err != nil {
		return fmt.Errorf("failed to load atlas: %w", err)
	}
	e.summary.Width, e.summary.Height, e.summary.Depth = volume.Width, volume.Height, volume.Depth
	e.summary.MaxLabel = volume.MaxLabel()
	log.Info().
		Ints("shape", []int{volume.Width, volume.Height, volume.Depth}).
		Int32("max_label", e.summary.MaxLabel).
		Msg("atlas loaded")

	// Step 3: Extract base tracts
	log.Info().Int("tracts", len(entries)).Int("workers", e.params.NumCores).Msg("step 3: extracting base tracts")
	batch, err := ExtractBaseTracts(ctx, volume, affine, entries, e.params.NumCores)
	if err != nil {
		return fmt.Errorf("failed to extract base tracts: %w", err)
	}
	e.base = batch.Table
	e.summary.BaseTracts = len(batch.Table)
	for _, m := range batch.Missing {
		e.summary.Missing = append(e.summary.Missing, m.Name)
	}

	// Step 4: Derive composite tracts
	if e.params.Composites {
		log.Info().Msg("step 4: computing composite tracts")
		e.composites = composite.Compute(ctx, e.base)
	}
	e.summary.CompositeTracts = len(e.composites)

	// Step 5: Assemble and persist
	e.final = table.Assemble(e.base, e.composites)
	if e.params.OutputPath == "" {
		return nil
	}
	log.Info().Str("path", e.params.OutputPath).Int("rows", len(e.final)).Msg("step 5: saving coordinates")
	if err := e.persist(ctx, atlasPath); err != nil {
		return fmt.Errorf("failed to save coordinates: %w", err)
	}
	e.summary.OutputPath = e.params.OutputPath

	return nil
}

func (e *Extractor) persist(ctx context.Context, atlasPath string) error {
	if !table.IsStorePath(e.params.OutputPath) {
		return table.SaveCSV(e.params.OutputPath, e.final)
	}

	if err := os.MkdirAll(filepath.Dir(e.params.OutputPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	store, err := table.OpenStore(e.params.OutputPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, atlasPath, e.final)
	if err != nil {
		return err
	}
	e.summary.RunID = id
	return nil
}

// Table returns the assembled coordinate table of the last run.
func (e *Extractor) Table() table.Table {
	return e.final
}

// BaseTable returns the base tracts of the last run.
func (e *Extractor) BaseTable() table.Table {
	return e.base
}

// Summary returns the statistics of the last run.
func (e *Extractor) Summary() Summary {
	return e.summary
}
