package physics

import "math"

// Shape 刚体形状类型
type Shape int

const (
	ShapeCircle Shape = iota // 圆形（物品）
	ShapeRect                // 轴对齐矩形（墙体/地板）
)

// Vec2 二维向量
type Vec2 struct {
	X float64
	Y float64
}

// Add 向量加法
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub 向量减法
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale 向量缩放
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot 点积
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Len 向量长度
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Body 刚体
type Body struct {
	ID  int // 世界内唯一ID
	Tag int // 归属方设置的句柄（0表示墙体等无句柄刚体）

	Shape      Shape
	Pos        Vec2
	Vel        Vec2
	Angle      float64
	AngularVel float64

	// 圆形参数
	Radius float64

	// 矩形参数（半宽/半高）
	HalfW float64
	HalfH float64

	Static      bool
	Restitution float64 // 碰撞恢复系数
}

// Bounds 返回轴对齐包围盒
func (b *Body) Bounds() (min, max Vec2) {
	switch b.Shape {
	case ShapeCircle:
		min = Vec2{b.Pos.X - b.Radius, b.Pos.Y - b.Radius}
		max = Vec2{b.Pos.X + b.Radius, b.Pos.Y + b.Radius}
	case ShapeRect:
		min = Vec2{b.Pos.X - b.HalfW, b.Pos.Y - b.HalfH}
		max = Vec2{b.Pos.X + b.HalfW, b.Pos.Y + b.HalfH}
	}
	return min, max
}

// SetPosition 直接设置位置（不改变速度）
func (b *Body) SetPosition(pos Vec2) {
	b.Pos = pos
}

// SetStatic 切换静态标记。静态刚体不参与积分，速度清零。
func (b *Body) SetStatic(static bool) {
	b.Static = static
	if static {
		b.Vel = Vec2{}
		b.AngularVel = 0
	}
}
