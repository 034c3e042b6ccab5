package canvas

import (
	"math"
	"testing"

	"github.com/iagro/supervisory/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const eps = 1e-6

func near(a, b models.Point) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func coord() gopter.Gen { return gen.Float64Range(-5000, 5000) }

func TestEngine_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("drag keeps the grab offset for any origin", prop.ForAll(
		func(ox, oy, cx, cy, gx, gy, mx, my float64) bool {
			owner := newOwner(comp("a", cx, cy))
			e := NewEngine(owner)
			e.view.Origin = pt(ox, oy)

			down := pt(cx+ox+gx, cy+oy+gy)
			e.PointerDown("a", down, ButtonLeft)
			e.PointerMove(pt(down.X+mx, down.Y+my))

			return near(owner.comps[0].Position, pt(cx+mx, cy+my))
		},
		coord(), coord(), coord(), coord(), coord(), coord(), coord(), coord(),
	))

	properties.Property("pan never touches component positions", prop.ForAll(
		func(sx, sy, ex, ey float64) bool {
			owner := newOwner(comp("a", 1, 2), comp("b", 3, 4))
			e := NewEngine(owner)
			e.PointerDown("", pt(sx, sy), ButtonLeft)
			e.PointerMove(pt(ex, ey))
			e.PointerUp()

			return near(e.Origin(), pt(ex-sx, ey-sy)) &&
				owner.comps[0].Position == pt(1, 2) &&
				owner.comps[1].Position == pt(3, 4)
		},
		coord(), coord(), coord(), coord(),
	))

	properties.Property("clicking empty canvas always clears selection", prop.ForAll(
		func(n int, pick int) bool {
			owner := newOwner()
			for i := 0; i < n; i++ {
				owner.comps = append(owner.comps, comp(string(rune('a'+i)), float64(i), float64(i)))
			}
			e := NewEngine(owner)
			if n > 0 {
				e.Select(owner.comps[pick%n].ID)
			}
			e.Click("")
			return e.Selected() == "" && owner.selected == ""
		},
		gen.IntRange(0, 20), gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
