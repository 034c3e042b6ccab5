package editor

import (
	"math"
	"reflect"
	"testing"

	"github.com/iagro/supervisory/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pump() models.PlacedComponent {
	return models.PlacedComponent{ID: "p1", Kind: models.KindPump, Label: "Bomba", Position: models.Point{X: 10, Y: 20}}
}

func line() models.PlacedComponent {
	return models.PlacedComponent{ID: "l1", Kind: models.KindLine, Label: "Linha"}
}

func TestSetScale_Clamps(t *testing.T) {
	got := SetScale(pump(), 0.05)
	require.NotNil(t, got.Config.Scale)
	assert.Equal(t, 0.2, *got.Config.Scale)

	assert.Equal(t, 2.5, *SetScale(pump(), 2.5).Config.Scale)
	assert.Equal(t, 1.0, *SetScale(pump(), math.NaN()).Config.Scale)
}

func TestSetLength_Clamps(t *testing.T) {
	got := SetLength(line(), -5)
	require.NotNil(t, got.Config.LengthPixels)
	assert.Equal(t, 10.0, *got.Config.LengthPixels)

	assert.Equal(t, 120.0, *SetLength(line(), 120).Config.LengthPixels)
}

func TestSetLength_OnlyForLines(t *testing.T) {
	got := SetLength(pump(), 200)
	assert.Nil(t, got.Config)
}

func TestSetPosition_AcceptsNegative(t *testing.T) {
	got := SetPosition(pump(), AxisX, -300)
	assert.Equal(t, models.Point{X: -300, Y: 20}, got.Position)

	got = SetPosition(got, AxisY, math.Inf(1))
	assert.Equal(t, models.Point{X: -300, Y: 20}, got.Position)
}

func TestInputs_FailSoft(t *testing.T) {
	c := pump()

	assert.Equal(t, c.Position, SetPositionInput(c, AxisX, "abc").Position)
	assert.Equal(t, 12.5, SetPositionInput(c, AxisX, "12,5").Position.X)

	assert.Equal(t, 0.0, *SetRotationInput(c, "").Config.RotationDegrees)
	assert.Equal(t, 45.0, *SetRotationInput(c, " 45 ").Config.RotationDegrees)

	assert.Equal(t, 1.0, *SetScaleInput(c, "x").Config.Scale)
	assert.Equal(t, 0.2, *SetScaleInput(c, "0.01").Config.Scale)

	l := SetLength(line(), 150)
	assert.Equal(t, 150.0, *SetLengthInput(l, "--").Config.LengthPixels)
	assert.Equal(t, 80.0, *SetLengthInput(line(), "NaN").Config.LengthPixels)
}

func TestTransforms_DoNotMutateInput(t *testing.T) {
	c := SetScale(pump(), 2)
	before := c.Clone()

	_ = SetScale(c, 3)
	_ = SetRotation(c, 90)
	_ = ToggleShowCaption(c, false)
	_ = RenameLabel(c, "other")

	assert.Equal(t, before, c)
}

func TestBindVariable(t *testing.T) {
	bound := BindVariable(pump(), "DB1.X0")
	assert.Equal(t, "DB1.X0", bound.BoundVariableAddress)

	unbound := BindVariable(bound, "")
	assert.False(t, unbound.IsBound())
}

func TestToggleShowCaption(t *testing.T) {
	got := ToggleShowCaption(pump(), false)
	assert.False(t, got.CaptionVisible())
	assert.True(t, ToggleShowCaption(got, true).CaptionVisible())
}

func TestSearchVariables(t *testing.T) {
	vars := []models.PlcVariable{
		{Address: "DB1.DBD0", Name: "Temperatura Caldeira"},
		{Address: "DB1.DBX4.0", Name: "Bomba Principal"},
		{Address: "DB2.DBD8", Name: "Nível Tanque"},
	}

	assert.Len(t, SearchVariables(vars, ""), 3)
	assert.Len(t, SearchVariables(vars, "db1"), 2)
	got := SearchVariables(vars, "BOMBA")
	require.Len(t, got, 1)
	assert.Equal(t, "DB1.DBX4.0", got[0].Address)
	assert.Len(t, SearchVariables(vars, "principal (db1"), 1)
	assert.Empty(t, SearchVariables(vars, "xyz"))
}

func TestTransform_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("binding twice equals binding once", prop.ForAll(
		func(addr string) bool {
			once := BindVariable(pump(), addr)
			twice := BindVariable(BindVariable(pump(), addr), addr)
			return reflect.DeepEqual(once, twice)
		},
		gen.AlphaString(),
	))

	properties.Property("scale never drops below the minimum", prop.ForAll(
		func(v float64) bool {
			return *SetScale(pump(), v).Config.Scale >= models.MinScale
		},
		gen.Float64(),
	))

	properties.Property("length never drops below the minimum", prop.ForAll(
		func(v float64) bool {
			return *SetLength(line(), v).Config.LengthPixels >= models.MinLineLength
		},
		gen.Float64(),
	))

	properties.Property("any raw input yields a renderable component", prop.ForAll(
		func(raw string) bool {
			for _, f := range []Field{FieldPositionX, FieldPositionY, FieldRotation, FieldScale, FieldLength, FieldShowCaption} {
				c := Apply(line(), f, raw)
				if !c.Position.Finite() || math.IsNaN(c.Rotation()) || c.EffectiveScale() < models.MinScale {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
