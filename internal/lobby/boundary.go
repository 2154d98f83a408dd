package lobby

import (
	"github.com/wfunc/word-merge/internal/physics"
)

// 箱体几何常量（相对视口尺寸定位）
const (
	wallThickness  = 20.0
	wallHeight     = 100.0
	floorThickness = 20.0
	floorRise      = 25.0 // 地板中心距视口底边的高度
	spawnY         = 100.0
)

// box 单个开口箱体：一块地板加两面矮墙，全部为静态刚体
type box struct {
	centerX   float64
	halfWidth float64
	floor     *physics.Body
	leftWall  *physics.Body
	rightWall *physics.Body
}

// newBox 在指定中心创建箱体并挂入物理世界
func newBox(world *physics.World, centerX, viewH, width float64) *box {
	half := width / 2
	floorY := viewH - floorRise
	wallY := floorY - wallHeight/2

	return &box{
		centerX:   centerX,
		halfWidth: half,
		floor:     world.AddRect(physics.Vec2{X: centerX, Y: floorY}, width, floorThickness, true),
		leftWall:  world.AddRect(physics.Vec2{X: centerX - half, Y: wallY}, wallThickness, wallHeight, true),
		rightWall: world.AddRect(physics.Vec2{X: centerX + half, Y: wallY}, wallThickness, wallHeight, true),
	}
}

// moveTo 重定位箱体（视口尺寸变化时调用，保留刚体本身）
func (b *box) moveTo(centerX, viewH float64) {
	floorY := viewH - floorRise
	wallY := floorY - wallHeight/2

	b.centerX = centerX
	b.floor.SetPosition(physics.Vec2{X: centerX, Y: floorY})
	b.leftWall.SetPosition(physics.Vec2{X: centerX - b.halfWidth, Y: wallY})
	b.rightWall.SetPosition(physics.Vec2{X: centerX + b.halfWidth, Y: wallY})
}

// remove 从物理世界摘除箱体刚体
func (b *box) remove(world *physics.World) {
	world.Remove(b.floor)
	world.Remove(b.leftWall)
	world.Remove(b.rightWall)
}

// innerSpan 内侧可用横向区间（墙体内表面之间）
func (b *box) innerSpan() (min, max float64) {
	return b.centerX - b.halfWidth + wallThickness/2,
		b.centerX + b.halfWidth - wallThickness/2
}

// clampX 将横坐标限制在箱体内侧区间内
func (b *box) clampX(x float64) float64 {
	min, max := b.innerSpan()
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// floorTop 地板上表面的纵坐标
func (b *box) floorTop() float64 {
	return b.floor.Pos.Y - floorThickness/2
}

// escaped 判断刚体是否已完全脱离箱体：
// 整体沉到地板上表面以下，且完全越过任一内侧墙面。
func (b *box) escaped(body *physics.Body) bool {
	bmin, bmax := body.Bounds()
	if bmin.Y <= b.floorTop() {
		return false
	}
	innerLeft := b.leftWall.Pos.X + wallThickness/2
	innerRight := b.rightWall.Pos.X - wallThickness/2
	return bmax.X < innerLeft || bmin.X > innerRight
}
