// Package catalog holds the fixed JHU white-matter label table and the names
// of the composite tracts derived from it.
package catalog

import (
	"errors"
	"fmt"
)

// Entry pairs an atlas label with its canonical tract name.
type Entry struct {
	Label int32
	Name  string
}

// BaseTracts is the ordered 48-entry label catalog of the JHU-ICBM atlas.
var BaseTracts = []Entry{
	{1, "ATR_L"}, {2, "ATR_R"},
	{3, "CST_L"}, {4, "CST_R"},
	{5, "CGC_L"}, {6, "CGC_R"},
	{7, "CGH_L"}, {8, "CGH_R"},
	{9, "FX_MAJOR"}, {10, "FX_MINOR"},
	{11, "IFO_L"}, {12, "IFO_R"},
	{13, "ILF_L"}, {14, "ILF_R"},
	{15, "SLF_L"}, {16, "SLF_R"},
	{17, "UNC_L"}, {18, "UNC_R"},
	{19, "SLF_T_L"}, {20, "SLF_T_R"},
	{21, "ALIC_L"}, {22, "ALIC_R"},
	{23, "PLIC_L"}, {24, "PLIC_R"},
	{25, "RLIC_L"}, {26, "RLIC_R"},
	{27, "ACR_L"}, {28, "ACR_R"},
	{29, "SCR_L"}, {30, "SCR_R"},
	{31, "PCR_L"}, {32, "PCR_R"},
	{33, "PTR_L"}, {34, "PTR_R"},
	{35, "SS_L"}, {36, "SS_R"},
	{37, "EC_L"}, {38, "EC_R"},
	{39, "FX_L"}, {40, "FX_R"},
	{41, "FXST_L"}, {42, "FXST_R"},
	{43, "SFO_L"}, {44, "SFO_R"},
	{45, "TAP_L"}, {46, "TAP_R"},
	{47, "SCC"}, {48, "GCC"},
}

// Composite tract names in evaluation order.
const (
	BCC = "BCC"
	CC  = "CC"
	IC  = "IC"
	CR  = "CR"
)

// CompositeTracts lists the derived tract names in output order.
var CompositeTracts = []string{BCC, CC, IC, CR}

// ErrInvalidCatalog is returned by Validate for catalogs that cannot be
// extracted unambiguously.
var ErrInvalidCatalog = errors.New("invalid tract catalog")

// Validate checks that every entry has a positive label, that labels and
// names are unique, and that no name shadows a composite tract.
func Validate(entries []Entry) error {
	labels := make(map[int32]string, len(entries))
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		switch {
		case e.Label <= 0:
			return fmt.Errorf("%w: %s has non-positive label %d", ErrInvalidCatalog, e.Name, e.Label)
		case e.Name == "":
			return fmt.Errorf("%w: label %d has no name", ErrInvalidCatalog, e.Label)
		case isComposite(e.Name):
			return fmt.Errorf("%w: %s is a composite tract name", ErrInvalidCatalog, e.Name)
		case names[e.Name]:
			return fmt.Errorf("%w: duplicate name %s", ErrInvalidCatalog, e.Name)
		}
		if other, ok := labels[e.Label]; ok {
			return fmt.Errorf("%w: label %d used by %s and %s", ErrInvalidCatalog, e.Label, other, e.Name)
		}
		labels[e.Label] = e.Name
		names[e.Name] = true
	}
	return nil
}

func isComposite(name string) bool {
	for _, c := range CompositeTracts {
		if c == name {
			return true
		}
	}
	return false
}
