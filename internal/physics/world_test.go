package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 30

func TestGravityIntegration(t *testing.T) {
	w := NewWorld(980)
	b := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)

	w.Step(dt)

	assert.InDelta(t, 980*dt, b.Vel.Y, 1e-9)
	assert.Greater(t, b.Pos.Y, 100.0)
	assert.Equal(t, 100.0, b.Pos.X, "无横向力时横坐标不变")
}

func TestStaticBodyFrozen(t *testing.T) {
	w := NewWorld(980)
	b := w.AddCircle(Vec2{X: 100, Y: 100}, 20, true)

	for i := 0; i < 60; i++ {
		w.Step(dt)
	}

	assert.Equal(t, Vec2{X: 100, Y: 100}, b.Pos)
	assert.Equal(t, Vec2{}, b.Vel)
}

func TestCircleRestsOnFloor(t *testing.T) {
	w := NewWorld(980)
	w.AddRect(Vec2{X: 400, Y: 575}, 400, 20, true)
	b := w.AddCircle(Vec2{X: 400, Y: 100}, 20, false)

	// 足够多帧后应停在地板上表面附近
	for i := 0; i < 300; i++ {
		w.Step(dt)
	}

	floorTop := 575.0 - 10
	assert.InDelta(t, floorTop-20, b.Pos.Y, 3.0)
	assert.Less(t, b.Pos.Y, floorTop, "不得穿透地板")
}

func TestWallBlocksCircle(t *testing.T) {
	w := NewWorld(980)
	w.AddRect(Vec2{X: 400, Y: 575}, 400, 20, true)
	w.AddRect(Vec2{X: 200, Y: 525}, 20, 100, true)
	b := w.AddCircle(Vec2{X: 230, Y: 545}, 20, false)
	b.Vel = Vec2{X: -200, Y: 0}

	for i := 0; i < 300; i++ {
		w.Step(dt)
	}

	// 墙内侧表面在 x=210，圆应贴墙停下
	assert.Greater(t, b.Pos.X, 205.0, "不得穿过墙体")
	assert.Less(t, b.Pos.X, 245.0)
}

func TestContactStartReportedOnce(t *testing.T) {
	w := NewWorld(0)
	a := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)
	b := w.AddCircle(Vec2{X: 100, Y: 100}, 20, true)
	_ = a

	contacts := w.Step(dt)
	require.Len(t, contacts, 1)
	assert.Equal(t, pairKey(contacts[0].A.ID, contacts[0].B.ID), pairKey(a.ID, b.ID))

	// 持续接触不再重复上报
	contacts = w.Step(dt)
	assert.Empty(t, contacts)
}

func TestStaticPairNoContact(t *testing.T) {
	w := NewWorld(0)
	w.AddCircle(Vec2{X: 100, Y: 100}, 20, true)
	w.AddCircle(Vec2{X: 100, Y: 100}, 20, true)

	contacts := w.Step(dt)
	assert.Empty(t, contacts)
}

func TestContactRestartsAfterSeparation(t *testing.T) {
	w := NewWorld(0)
	a := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)
	b := w.AddCircle(Vec2{X: 130, Y: 100}, 20, false)

	contacts := w.Step(dt)
	require.Len(t, contacts, 1)

	// 人为分开后再靠近，视为新接触
	a.SetPosition(Vec2{X: 100, Y: 100})
	b.SetPosition(Vec2{X: 300, Y: 100})
	a.Vel, b.Vel = Vec2{}, Vec2{}
	contacts = w.Step(dt)
	assert.Empty(t, contacts)

	b.SetPosition(Vec2{X: 120, Y: 100})
	contacts = w.Step(dt)
	assert.Len(t, contacts, 1)
}

func TestCirclesSeparate(t *testing.T) {
	w := NewWorld(0)
	a := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)
	b := w.AddCircle(Vec2{X: 110, Y: 100}, 20, false)

	for i := 0; i < 10; i++ {
		w.Step(dt)
	}

	dist := a.Pos.Sub(b.Pos).Len()
	assert.GreaterOrEqual(t, dist, 39.0, "重叠的圆应被推开")
}

func TestRemoveCleansTouching(t *testing.T) {
	w := NewWorld(0)
	a := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)
	b := w.AddCircle(Vec2{X: 100, Y: 100}, 20, true)
	_ = b

	contacts := w.Step(dt)
	require.Len(t, contacts, 1)

	w.Remove(a)
	assert.Equal(t, 1, w.BodyCount())

	// 同位置新刚体应产生新的接触事件
	c := w.AddCircle(Vec2{X: 100, Y: 100}, 20, false)
	_ = c
	contacts = w.Step(dt)
	assert.Len(t, contacts, 1)
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name    string
		body    *Body
		wantMin Vec2
		wantMax Vec2
	}{
		{
			name:    "圆形包围盒",
			body:    &Body{Shape: ShapeCircle, Pos: Vec2{X: 100, Y: 50}, Radius: 20},
			wantMin: Vec2{X: 80, Y: 30},
			wantMax: Vec2{X: 120, Y: 70},
		},
		{
			name:    "矩形包围盒",
			body:    &Body{Shape: ShapeRect, Pos: Vec2{X: 400, Y: 575}, HalfW: 200, HalfH: 10},
			wantMin: Vec2{X: 200, Y: 565},
			wantMax: Vec2{X: 600, Y: 585},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.body.Bounds()
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
		})
	}
}
