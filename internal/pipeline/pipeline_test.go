package pipeline

import (
	"errors"
	"testing"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/EmpoweredVote/EV-Circuits/internal/sources"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

var election = config.DefaultElection().Normalized()

var currentHeader = []string{" Circuito", "COMUNA", "Descripcion_Candidatura ", "SUM cant_votos"}
var priorHeader = []string{"circuito_id", "seccion_nombre", "agrupacion_nombre", "sum votos_cantidad"}

func currentTable(rows ...[]string) model.RawTable {
	return model.RawTable{Name: "current", Header: currentHeader, Rows: rows}
}

func priorTable(rows ...[]string) model.RawTable {
	return model.RawTable{Name: "prior", Header: priorHeader, Rows: rows}
}

func square(x, y float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y},
	}})
}

func metricsFor(t *testing.T, cur, prior model.RawTable) map[string]model.AggregatedCircuit {
	t.Helper()
	c, err := Normalize(cur, election.Current)
	require.NoError(t, err)
	p, err := Normalize(prior, election.Prior)
	require.NoError(t, err)

	out := map[string]model.AggregatedCircuit{}
	for _, m := range ComputeMetrics(Aggregate(c, p, election), election) {
		out[m.Circuit] = m
	}
	return out
}

func TestNormalize(t *testing.T) {
	recs, err := Normalize(currentTable(
		[]string{"7", "Comuna 3", " la libertad avanza ", "12"},
		[]string{"123", "comuna 3", "Unión por la Patria", "300.0"},
		[]string{"8", "Comuna 4", "Otro", ""},
	), election.Current)
	require.NoError(t, err)

	want := []model.ResultRecord{
		{Circuit: "00007", Party: "LA LIBERTAD AVANZA", Subdivision: "COMUNA 3", Votes: 12},
		{Circuit: "00123", Party: "UNIÓN POR LA PATRIA", Subdivision: "COMUNA 3", Votes: 300},
		{Circuit: "00008", Party: "OTRO", Subdivision: "COMUNA 4", Votes: 0},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_MissingSubdivision(t *testing.T) {
	tbl := model.RawTable{
		Header: []string{"circuito", "descripcion_candidatura", "sum cant_votos"},
		Rows:   [][]string{{"1", "LA LIBERTAD AVANZA", "1"}},
	}
	_, err := Normalize(tbl, election.Current)

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "comuna", mce.Column)
	assert.Equal(t, "No se encontró la columna 'comuna' en resultados 2025.", mce.UserMessage())

	tbl = model.RawTable{Header: []string{"circuito_id", "agrupacion_nombre", "sum votos_cantidad"}}
	_, err = Normalize(tbl, election.Prior)
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "seccion_nombre", mce.Column)
}

func TestNormalize_MixedCaseConfiguredColumns(t *testing.T) {
	e := config.DefaultElection()
	e.Current.Columns.Subdivision = "Comuna"
	e.Current.Columns.Votes = "SUM cant_votos "
	e = e.Normalized()

	recs, err := Normalize(currentTable([]string{"1", "Comuna 1", "LA LIBERTAD AVANZA", "9"}), e.Current)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "COMUNA 1", recs[0].Subdivision)
	assert.Equal(t, int64(9), recs[0].Votes)
}

func TestNormalize_InvalidVotes(t *testing.T) {
	for _, v := range []string{"abc", "-3", "2.5"} {
		_, err := Normalize(currentTable([]string{"1", "C1", "X", v}), election.Current)
		assert.ErrorIs(t, err, ErrInvalidVotes, "votes %q", v)
	}
}

func TestAggregate(t *testing.T) {
	c, err := Normalize(currentTable(
		[]string{"1", "Comuna 1", "LA LIBERTAD AVANZA", "100"},
		[]string{"1", "Comuna 1", "ES AHORA BUENOS AIRES", "40"},
		[]string{"1", "Comuna 9", "UNION POR LA PATRIA", "10"},
		[]string{"1", "Comuna 1", "BUENOS AIRES PRIMERO", "25"},
		[]string{"2", "", "FRENTE DE IZQUIERDA", "7"},
		[]string{"2", "Comuna 2", "FRENTE DE IZQUIERDA", "3"},
	), election.Current)
	require.NoError(t, err)
	p, err := Normalize(priorTable(
		[]string{"1", "Comuna 1", "LA LIBERTAD AVANZA", "60"},
		[]string{"1", "Comuna 1", "JUNTOS POR EL CAMBIO", "90"},
	), election.Prior)
	require.NoError(t, err)

	agg := Aggregate(c, p, election)

	assert.Equal(t, map[string]map[string]int64{"00001": {"LLA": 100, "AHORA": 50}}, agg.PivotCurrent)
	assert.Equal(t, map[string]int64{"00001": 175, "00002": 10}, agg.TotalsCurrent)
	assert.Equal(t, map[string]int64{"00001": 150}, agg.TotalsPrior)
	assert.Equal(t, map[string]int64{"00001": 60}, agg.PriorReference)
	assert.Equal(t, map[string]map[string]int64{
		"00001": {"LLA_TIP": 100, "AHORA_TIP": 40, "BA_PRIMERO_TIP": 25},
	}, agg.TooltipDetail)
	assert.Equal(t, map[string]string{"00001": "COMUNA 1", "00002": "COMUNA 2"}, agg.SubdivisionByCircuit,
		"blank comunas are skipped, later comunas never override the first one")
}

func TestComputeMetrics_EndToEndScenario(t *testing.T) {
	m := metricsFor(t, currentTable(
		[]string{"1", "Comuna 1", "LA LIBERTAD AVANZA", "300"},
		[]string{"1", "Comuna 1", "ES AHORA BUENOS AIRES", "200"},
	), priorTable())

	got, ok := m["00001"]
	require.True(t, ok)
	assert.Equal(t, int64(300), got.FocusVotes)
	assert.Equal(t, int64(200), got.RivalVotes)
	assert.Equal(t, int64(500), got.TotalCurrent)
	assert.Equal(t, "LLA", got.Winner)
	require.NotNil(t, got.ShareCurrent)
	assert.InDelta(t, 60.0, *got.ShareCurrent, 1e-9)
	assert.Equal(t, int64(300), got.GrowthAbs)
	assert.Nil(t, got.SharePrior)
	assert.Nil(t, got.GrowthPct)
	assert.Equal(t, "COMUNA 1", got.Subdivision)

	v, _ := got.TooltipVotes("AHORA_TIP")
	assert.Equal(t, int64(200), v)
	v, ok = got.TooltipVotes("BA_PRIMERO_TIP")
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)
}

func TestComputeMetrics_OuterJoinCompleteness(t *testing.T) {
	m := metricsFor(t, currentTable(), priorTable(
		[]string{"9", "Comuna 5", "LA LIBERTAD AVANZA", "50"},
		[]string{"9", "Comuna 5", "UNION POR LA PATRIA", "150"},
	))

	got, ok := m["00009"]
	require.True(t, ok)
	assert.Equal(t, int64(0), got.FocusVotes)
	assert.Equal(t, int64(0), got.RivalVotes)
	assert.Equal(t, int64(50), got.PriorReferenceVotes)
	assert.Equal(t, int64(200), got.TotalPrior)
	assert.Equal(t, int64(0), got.TotalCurrent)
	require.NotNil(t, got.SharePrior)
	assert.InDelta(t, 25.0, *got.SharePrior, 1e-9)
	assert.Nil(t, got.ShareCurrent)
	assert.Nil(t, got.GrowthPct)
	assert.Equal(t, int64(-50), got.GrowthAbs)
	assert.Equal(t, "", got.Subdivision)
}

func TestComputeMetrics_TieGoesToRival(t *testing.T) {
	m := metricsFor(t, currentTable(
		[]string{"3", "C", "LA LIBERTAD AVANZA", "100"},
		[]string{"3", "C", "ES AHORA BUENOS AIRES", "100"},
		[]string{"4", "C", "OTRO", "100"},
	), priorTable())

	assert.Equal(t, "AHORA", m["00003"].Winner)
	assert.Equal(t, "AHORA", m["00004"].Winner, "no grouped votes is a 0-0 tie")
}

func TestComputeMetrics_Properties(t *testing.T) {
	m := metricsFor(t, currentTable(
		[]string{"1", "C", "LA LIBERTAD AVANZA", "30"},
		[]string{"1", "C", "OTRO", "70"},
		[]string{"2", "C", "LA LIBERTAD AVANZA", "0"},
		[]string{"3", "C", "ES AHORA BUENOS AIRES", "5"},
	), priorTable(
		[]string{"1", "C", "LA LIBERTAD AVANZA", "10"},
		[]string{"1", "C", "OTRO", "40"},
		[]string{"2", "C", "LA LIBERTAD AVANZA", "4"},
	))

	for id, got := range m {
		assert.Contains(t, []string{"LLA", "AHORA"}, got.Winner, id)
		assert.Equal(t, got.FocusVotes-got.PriorReferenceVotes, got.GrowthAbs, id)
		assert.Len(t, id, model.CircuitWidth)
		if got.TotalCurrent == 0 {
			assert.Nil(t, got.ShareCurrent, id)
		} else {
			require.NotNil(t, got.ShareCurrent, id)
			assert.GreaterOrEqual(t, *got.ShareCurrent, 0.0)
			assert.LessOrEqual(t, *got.ShareCurrent, 100.0)
		}
	}

	one := m["00001"]
	assert.InDelta(t, 30.0, *one.ShareCurrent, 1e-9)
	assert.InDelta(t, 20.0, *one.SharePrior, 1e-9)
	assert.InDelta(t, 10.0, *one.GrowthPct, 1e-9)

	two := m["00002"]
	assert.Nil(t, two.ShareCurrent, "total of zero votes has no share")
	assert.Equal(t, int64(-4), two.GrowthAbs)
}

func TestJoinGeometry(t *testing.T) {
	geoms := []model.CircuitGeometry{
		{Circuit: "00001", Geometry: square(0, 0), Properties: map[string]interface{}{"circuito": "00001"}},
		{Circuit: "00002", Geometry: square(2, 0), Properties: map[string]interface{}{"circuito": "00002", "barrio": "Palermo"}},
	}
	metrics := []model.AggregatedCircuit{{Circuit: "00001", Winner: "LLA"}, {Circuit: "00099", Winner: "AHORA"}}

	rows, cov := JoinGeometry(geoms, metrics)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Metrics)
	assert.Equal(t, "LLA", rows[0].Metrics.Winner)

	assert.Nil(t, rows[1].Metrics)
	assert.Equal(t, "Palermo", rows[1].Properties["barrio"])
	assert.Same(t, geoms[1].Geometry, rows[1].Geometry)

	assert.Equal(t, Coverage{Matched: 1, GeometryOnly: 1, MetricsOnly: []string{"00099"}}, cov)
	assert.True(t, cov.Mismatched())
}

func TestRun(t *testing.T) {
	snap := &sources.Snapshot{
		ID: "snap-1",
		Current: currentTable(
			[]string{"1", "Comuna 1", "LA LIBERTAD AVANZA", "300"},
			[]string{"1", "Comuna 1", "ES AHORA BUENOS AIRES", "200"},
		),
		Prior: priorTable(),
		Geometry: []model.CircuitGeometry{
			{Circuit: "00001", Geometry: square(0, 0), Properties: map[string]interface{}{}},
			{Circuit: "00002", Geometry: square(5, 5), Properties: map[string]interface{}{}},
		},
	}

	res, err := Run(snap, election)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", res.SnapshotID)
	assert.Len(t, res.Metrics, 1)
	assert.Len(t, res.Circuits, 2)
	assert.Equal(t, 1, res.Coverage.Matched)

	c, ok := res.Find("1")
	require.True(t, ok)
	assert.Equal(t, "LLA", c.Metrics.Winner)

	_, ok = res.Find("404")
	assert.False(t, ok)
}

func TestRun_FatalMissingColumn(t *testing.T) {
	snap := &sources.Snapshot{
		Current: model.RawTable{Header: []string{"circuito", "descripcion_candidatura", "sum cant_votos"}},
		Prior:   priorTable(),
	}
	res, err := Run(snap, election)
	assert.Nil(t, res)

	var mce *MissingColumnError
	assert.True(t, errors.As(err, &mce))
}

func TestSummarize(t *testing.T) {
	metrics := []model.AggregatedCircuit{
		{Circuit: "00001", Subdivision: "COMUNA 2", FocusVotes: 30, TotalCurrent: 100, Winner: "LLA", PriorReferenceVotes: 10, TotalPrior: 50},
		{Circuit: "00002", Subdivision: "COMUNA 2", FocusVotes: 10, RivalVotes: 20, TotalCurrent: 100, Winner: "AHORA"},
		{Circuit: "00003", Subdivision: "COMUNA 1", Winner: "AHORA"},
		{Circuit: "00004", Winner: "AHORA", TotalPrior: 10},
	}

	got := Summarize(metrics, election)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"", "COMUNA 1", "COMUNA 2"},
		[]string{got[0].Subdivision, got[1].Subdivision, got[2].Subdivision})

	c2 := got[2]
	assert.Equal(t, 2, c2.Circuits)
	assert.Equal(t, int64(40), c2.FocusVotes)
	assert.Equal(t, 1, c2.FocusWins)
	assert.Equal(t, 1, c2.RivalWins)
	require.NotNil(t, c2.ShareCurrent())
	assert.InDelta(t, 20.0, *c2.ShareCurrent(), 1e-9)
	assert.InDelta(t, 20.0, *c2.SharePrior(), 1e-9)

	assert.Nil(t, got[1].ShareCurrent())
}
