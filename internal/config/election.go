package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/goccy/go-yaml"
)

// ErrInvalidElection is wrapped by every election mapping validation failure.
var ErrInvalidElection = errors.New("invalid election config")

// Columns names the source columns of one results table, after lower-casing and trimming.
type Columns struct {
	Party       string `yaml:"party"`
	Votes       string `yaml:"votes"`
	Circuit     string `yaml:"circuit"`
	Subdivision string `yaml:"subdivision"`
}

// TableSpec describes one year's results table.
type TableSpec struct {
	Name    string  `yaml:"name"` // shown in user-facing errors
	Year    int     `yaml:"year"`
	Columns Columns `yaml:"columns"`
}

// TooltipParty is a party whose raw votes are shown in the winner tooltip.
type TooltipParty struct {
	Party string `yaml:"party"`
	Field string `yaml:"field"`
	Alias string `yaml:"alias"`
}

// Election maps both years' tables onto the metric model.
type Election struct {
	Current        TableSpec         `yaml:"current"`
	Prior          TableSpec         `yaml:"prior"`
	Groups         map[string]string `yaml:"groups"` // party -> group tag
	FocusGroup     string            `yaml:"focus_group"`
	RivalGroup     string            `yaml:"rival_group"`
	ReferenceParty string            `yaml:"reference_party"`
	Tooltip        []TooltipParty    `yaml:"tooltip"`
}

// DefaultElection returns the CABA 2025 vs 2023 mapping.
func DefaultElection() Election {
	return Election{
		Current: TableSpec{
			Name: "resultados 2025",
			Year: 2025,
			Columns: Columns{
				Party:       "descripcion_candidatura",
				Votes:       "sum cant_votos",
				Circuit:     "circuito",
				Subdivision: "comuna",
			},
		},
		Prior: TableSpec{
			Name: "resultados 2023",
			Year: 2023,
			Columns: Columns{
				Party:       "agrupacion_nombre",
				Votes:       "sum votos_cantidad",
				Circuit:     "circuito_id",
				Subdivision: "seccion_nombre",
			},
		},
		Groups: map[string]string{
			"LA LIBERTAD AVANZA":    "LLA",
			"ES AHORA BUENOS AIRES": "AHORA",
			"UNION POR LA PATRIA":   "AHORA",
		},
		FocusGroup:     "LLA",
		RivalGroup:     "AHORA",
		ReferenceParty: "LA LIBERTAD AVANZA",
		Tooltip: []TooltipParty{
			{Party: "LA LIBERTAD AVANZA", Field: "LLA_TIP", Alias: "LLA votos"},
			{Party: "ES AHORA BUENOS AIRES", Field: "AHORA_TIP", Alias: "Ahora BsAs votos"},
			{Party: "BUENOS AIRES PRIMERO", Field: "BA_PRIMERO_TIP", Alias: "BA Primero votos"},
		},
	}
}

// LoadElection reads a YAML election mapping. Fields left out of the file keep their
// default values.
func LoadElection(path string) (Election, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Election{}, fmt.Errorf("read election config: %w", err)
	}

	var e Election
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Election{}, fmt.Errorf("parse election config %s: %w", path, err)
	}
	e.fillDefaults(DefaultElection())

	return e.Normalized(), nil
}

func (e *Election) fillDefaults(d Election) {
	fillTable(&e.Current, d.Current)
	fillTable(&e.Prior, d.Prior)
	if len(e.Groups) == 0 {
		e.Groups = d.Groups
	}
	if e.FocusGroup == "" {
		e.FocusGroup = d.FocusGroup
	}
	if e.RivalGroup == "" {
		e.RivalGroup = d.RivalGroup
	}
	if e.ReferenceParty == "" {
		e.ReferenceParty = d.ReferenceParty
	}
	if len(e.Tooltip) == 0 {
		e.Tooltip = d.Tooltip
	}
}

func fillTable(t *TableSpec, d TableSpec) {
	if t.Name == "" {
		t.Name = d.Name
	}
	if t.Year == 0 {
		t.Year = d.Year
	}
	if t.Columns.Party == "" {
		t.Columns.Party = d.Columns.Party
	}
	if t.Columns.Votes == "" {
		t.Columns.Votes = d.Columns.Votes
	}
	if t.Columns.Circuit == "" {
		t.Columns.Circuit = d.Columns.Circuit
	}
	if t.Columns.Subdivision == "" {
		t.Columns.Subdivision = d.Columns.Subdivision
	}
}

// Normalized returns a copy whose party names and column names are canonicalized the
// same way the results rows and headers are, so lookups match regardless of how the
// file spells them.
func (e Election) Normalized() Election {
	out := e
	out.Current.Columns = e.Current.Columns.normalized()
	out.Prior.Columns = e.Prior.Columns.normalized()
	out.Groups = make(map[string]string, len(e.Groups))
	for party, tag := range e.Groups {
		out.Groups[model.NormalizeName(party)] = tag
	}
	out.ReferenceParty = model.NormalizeName(e.ReferenceParty)
	out.Tooltip = make([]TooltipParty, len(e.Tooltip))
	for i, tp := range e.Tooltip {
		tp.Party = model.NormalizeName(tp.Party)
		out.Tooltip[i] = tp
	}
	return out
}

func (c Columns) normalized() Columns {
	return Columns{
		Party:       columnKey(c.Party),
		Votes:       columnKey(c.Votes),
		Circuit:     columnKey(c.Circuit),
		Subdivision: columnKey(c.Subdivision),
	}
}

func columnKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks the mapping is usable by the aggregator.
func (e Election) Validate() error {
	if e.FocusGroup == "" || e.RivalGroup == "" {
		return fmt.Errorf("%w: focus_group and rival_group are required", ErrInvalidElection)
	}
	if e.FocusGroup == e.RivalGroup {
		return fmt.Errorf("%w: focus_group and rival_group must differ (both %q)", ErrInvalidElection, e.FocusGroup)
	}

	seen := map[string]bool{}
	for _, tag := range e.Groups {
		if tag != e.FocusGroup && tag != e.RivalGroup {
			return fmt.Errorf("%w: group tag %q is neither %q nor %q", ErrInvalidElection, tag, e.FocusGroup, e.RivalGroup)
		}
		seen[tag] = true
	}
	if !seen[e.FocusGroup] || !seen[e.RivalGroup] {
		return fmt.Errorf("%w: groups must map at least one party to each of %q and %q", ErrInvalidElection, e.FocusGroup, e.RivalGroup)
	}

	if e.ReferenceParty == "" {
		return fmt.Errorf("%w: reference_party is required", ErrInvalidElection)
	}

	for _, t := range []TableSpec{e.Current, e.Prior} {
		c := t.Columns
		if c.Party == "" || c.Votes == "" || c.Circuit == "" || c.Subdivision == "" {
			return fmt.Errorf("%w: table %q needs party, votes, circuit and subdivision columns", ErrInvalidElection, t.Name)
		}
	}

	fields := map[string]bool{}
	for _, tp := range e.Tooltip {
		if tp.Party == "" || tp.Field == "" {
			return fmt.Errorf("%w: tooltip entries need party and field", ErrInvalidElection)
		}
		if fields[tp.Field] {
			return fmt.Errorf("%w: duplicate tooltip field %q", ErrInvalidElection, tp.Field)
		}
		fields[tp.Field] = true
	}
	return nil
}
