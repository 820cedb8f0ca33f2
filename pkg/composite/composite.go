// Package composite derives the combined tracts (BCC, CC, IC, CR) from a
// table of base tracts using fixed anatomical rules.
package composite

import (
	"context"

	"github.com/rs/zerolog"

	"tractcoords/internal/models"
	"tractcoords/pkg/catalog"
	"tractcoords/pkg/table"
)

// MinAverageInputs is how many of a bilateral rule's six inputs must be
// present. The value carries no anatomical justification; it is kept fixed
// so output stays comparable with existing coordinate tables.
const MinAverageInputs = 4

// AverageRule averages whichever of its inputs are present, over all nine
// coordinates, once at least MinAverageInputs of them exist.
type AverageRule struct {
	Name   string
	Inputs []string
}

// AverageRules are evaluated after the corpus callosum rules, in this order.
var AverageRules = []AverageRule{
	{
		Name:   catalog.IC,
		Inputs: []string{"ALIC_L", "ALIC_R", "PLIC_L", "PLIC_R", "RLIC_L", "RLIC_R"},
	},
	{
		Name:   catalog.CR,
		Inputs: []string{"ACR_L", "ACR_R", "SCR_L", "SCR_R", "PCR_L", "PCR_R"},
	},
}

// Compute applies the composite rules to base and returns the derived rows
// in the order BCC, CC, IC, CR. A rule whose inputs are missing is left out.
func Compute(ctx context.Context, base table.Table) []models.TractRow {
	log := zerolog.Ctx(ctx).With().Str("component", "composite").Logger()

	var out []models.TractRow

	gcc, hasGCC := base.Get("GCC")
	scc, hasSCC := base.Get("SCC")
	if hasGCC && hasSCC {
		bcc := BCC(gcc, scc)
		out = append(out, bcc)
		log.Debug().Str("roi", bcc.ROI).Msg("composite complete")

		cc := FullCC(gcc, bcc, scc)
		out = append(out, cc)
		log.Debug().Str("roi", cc.ROI).Msg("composite complete")
	} else {
		log.Info().Bool("gcc", hasGCC).Bool("scc", hasSCC).
			Strs("roi", []string{catalog.BCC, catalog.CC}).Msg("composite skipped")
	}

	for _, rule := range AverageRules {
		row, have, ok := rule.Apply(base)
		if !ok {
			log.Info().Str("roi", rule.Name).Int("have", have).Int("need", MinAverageInputs).
				Msg("composite skipped")
			continue
		}
		out = append(out, row)
		log.Debug().Str("roi", row.ROI).Int("inputs", have).Msg("composite complete")
	}

	return out
}

// Apply evaluates the rule against base. It reports how many inputs were
// found and whether the threshold was met.
func (r AverageRule) Apply(base table.Table) (row models.TractRow, have int, ok bool) {
	var present []models.TractRow
	for _, name := range r.Inputs {
		if t, found := base.Get(name); found {
			present = append(present, t)
		}
	}
	if len(present) < MinAverageInputs {
		return models.TractRow{}, len(present), false
	}
	row, _ = Average(r.Name, present...)
	return row, len(present), true
}

// BCC is the body of the corpus callosum: the midpoint of genu and splenium
// in y and z, on the midline (x = 0).
func BCC(gcc, scc models.TractRow) models.TractRow {
	return midline(catalog.BCC, gcc, scc)
}

// FullCC is the whole corpus callosum: the mean of genu, body and splenium
// in y and z, on the midline (x = 0).
func FullCC(gcc, bcc, scc models.TractRow) models.TractRow {
	return midline(catalog.CC, gcc, bcc, scc)
}

// Average returns the unweighted mean of rows over all nine coordinates.
// It reports false when rows is empty.
func Average(roi string, rows ...models.TractRow) (models.TractRow, bool) {
	if len(rows) == 0 {
		return models.TractRow{}, false
	}
	var sum [models.NumCoordinates]float64
	for _, r := range rows {
		for i, v := range r.Fields() {
			sum[i] += v
		}
	}
	n := float64(len(rows))
	for i := range sum {
		sum[i] /= n
	}
	return models.TractRowFromFields(roi, sum), true
}

// midline averages y and z and pins x to the mid-sagittal plane.
func midline(roi string, rows ...models.TractRow) models.TractRow {
	out, _ := Average(roi, rows...)
	out.Start[0] = 0
	out.End[0] = 0
	out.Centroid[0] = 0
	return out
}
