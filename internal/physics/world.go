package physics

import (
	"math"
	"sort"
)

// Contact 本帧新产生的圆-圆接触对
type Contact struct {
	A *Body
	B *Body
}

// World 固定步长的二维刚体世界。
// 非线程安全：归属它的大厅循环是唯一写者。
type World struct {
	Gravity float64 // 像素/秒²，向下为正

	bodies   map[int]*Body
	nextID   int
	touching map[[2]int]bool // 上一帧仍在接触的圆-圆对
}

// 求解迭代次数与位置修正系数
const (
	solverIterations   = 4
	positionCorrection = 0.8
	tangentDamping     = 0.98
	angularDamping     = 0.99
)

// NewWorld 创建世界
func NewWorld(gravity float64) *World {
	return &World{
		Gravity:  gravity,
		bodies:   make(map[int]*Body),
		nextID:   1,
		touching: make(map[[2]int]bool),
	}
}

// AddCircle 添加圆形刚体
func (w *World) AddCircle(pos Vec2, radius float64, static bool) *Body {
	b := &Body{
		ID:          w.nextID,
		Shape:       ShapeCircle,
		Pos:         pos,
		Radius:      radius,
		Static:      static,
		Restitution: 0.2,
	}
	w.nextID++
	w.bodies[b.ID] = b
	return b
}

// AddRect 添加轴对齐矩形刚体（墙体/地板只用静态矩形）
func (w *World) AddRect(pos Vec2, width, height float64, static bool) *Body {
	b := &Body{
		ID:          w.nextID,
		Shape:       ShapeRect,
		Pos:         pos,
		HalfW:       width / 2,
		HalfH:       height / 2,
		Static:      static,
		Restitution: 0.2,
	}
	w.nextID++
	w.bodies[b.ID] = b
	return b
}

// Remove 移除刚体
func (w *World) Remove(b *Body) {
	if b == nil {
		return
	}
	delete(w.bodies, b.ID)
	for key := range w.touching {
		if key[0] == b.ID || key[1] == b.ID {
			delete(w.touching, key)
		}
	}
}

// BodyCount 当前刚体数量
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Each 按ID升序遍历所有刚体
func (w *World) Each(fn func(*Body)) {
	ids := make([]int, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fn(w.bodies[id])
	}
}

// Step 推进一个固定时间步，返回本帧新开始的圆-圆接触对。
func (w *World) Step(dt float64) []Contact {
	// 1. 积分动态刚体
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.Vel.Y += w.Gravity * dt
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
		b.Angle += b.AngularVel * dt
		b.AngularVel *= angularDamping
	}

	// 2. 碰撞求解
	circles, rects := w.split()
	for i := 0; i < solverIterations; i++ {
		for _, c := range circles {
			if c.Static {
				continue
			}
			for _, r := range rects {
				w.solveCircleRect(c, r)
			}
		}
		for i := 0; i < len(circles); i++ {
			for j := i + 1; j < len(circles); j++ {
				w.solveCircleCircle(circles[i], circles[j])
			}
		}
	}

	// 3. 接触开始检测
	return w.detectNewContacts(circles)
}

// split 拆分圆与矩形列表（按ID排序保证确定性）
func (w *World) split() (circles, rects []*Body) {
	ids := make([]int, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b := w.bodies[id]
		if b.Shape == ShapeCircle {
			circles = append(circles, b)
		} else {
			rects = append(rects, b)
		}
	}
	return circles, rects
}

// solveCircleRect 圆与轴对齐矩形的分离与反弹
func (w *World) solveCircleRect(c, r *Body) {
	// 矩形上距圆心最近的点
	cx := clamp(c.Pos.X, r.Pos.X-r.HalfW, r.Pos.X+r.HalfW)
	cy := clamp(c.Pos.Y, r.Pos.Y-r.HalfH, r.Pos.Y+r.HalfH)
	diff := c.Pos.Sub(Vec2{cx, cy})
	dist := diff.Len()
	if dist >= c.Radius {
		return
	}

	var normal Vec2
	var depth float64
	if dist > 1e-9 {
		normal = diff.Scale(1 / dist)
		depth = c.Radius - dist
	} else {
		// 圆心陷入矩形内部，沿最浅轴推出
		left := c.Pos.X - (r.Pos.X - r.HalfW)
		right := (r.Pos.X + r.HalfW) - c.Pos.X
		top := c.Pos.Y - (r.Pos.Y - r.HalfH)
		bottom := (r.Pos.Y + r.HalfH) - c.Pos.Y
		minPen := math.Min(math.Min(left, right), math.Min(top, bottom))
		switch minPen {
		case left:
			normal = Vec2{-1, 0}
		case right:
			normal = Vec2{1, 0}
		case top:
			normal = Vec2{0, -1}
		default:
			normal = Vec2{0, 1}
		}
		depth = minPen + c.Radius
	}

	// 位置修正
	c.Pos = c.Pos.Add(normal.Scale(depth * positionCorrection))

	// 速度响应：法向反弹 + 切向阻尼
	vn := c.Vel.Dot(normal)
	if vn < 0 {
		restitution := math.Min(c.Restitution, r.Restitution)
		c.Vel = c.Vel.Sub(normal.Scale((1 + restitution) * vn))
	}
	tangent := Vec2{-normal.Y, normal.X}
	vt := c.Vel.Dot(tangent)
	c.Vel = c.Vel.Sub(tangent.Scale(vt * (1 - tangentDamping)))

	// 滚动：切向滑移转为角速度
	if c.Radius > 0 {
		c.AngularVel = vt / c.Radius
	}
}

// solveCircleCircle 圆与圆的分离与等质量冲量交换
func (w *World) solveCircleCircle(a, b *Body) {
	if a.Static && b.Static {
		return
	}
	diff := b.Pos.Sub(a.Pos)
	dist := diff.Len()
	minDist := a.Radius + b.Radius
	if dist >= minDist {
		return
	}

	var normal Vec2
	if dist > 1e-9 {
		normal = diff.Scale(1 / dist)
	} else {
		normal = Vec2{0, -1}
	}
	depth := minDist - dist

	// 位置修正：动态方分担
	switch {
	case a.Static:
		b.Pos = b.Pos.Add(normal.Scale(depth * positionCorrection))
	case b.Static:
		a.Pos = a.Pos.Sub(normal.Scale(depth * positionCorrection))
	default:
		half := depth * positionCorrection / 2
		a.Pos = a.Pos.Sub(normal.Scale(half))
		b.Pos = b.Pos.Add(normal.Scale(half))
	}

	// 相对速度沿法向的分量
	rel := b.Vel.Sub(a.Vel)
	vn := rel.Dot(normal)
	if vn >= 0 {
		return
	}
	restitution := math.Min(a.Restitution, b.Restitution)
	j := -(1 + restitution) * vn
	impulse := normal.Scale(j)
	switch {
	case a.Static:
		b.Vel = b.Vel.Add(impulse)
	case b.Static:
		a.Vel = a.Vel.Sub(impulse)
	default:
		a.Vel = a.Vel.Sub(impulse.Scale(0.5))
		b.Vel = b.Vel.Add(impulse.Scale(0.5))
	}
}

// detectNewContacts 返回本帧新开始接触的圆-圆对
func (w *World) detectNewContacts(circles []*Body) []Contact {
	current := make(map[[2]int]bool)
	var started []Contact

	for i := 0; i < len(circles); i++ {
		for j := i + 1; j < len(circles); j++ {
			a, b := circles[i], circles[j]
			if a.Static && b.Static {
				// 静态对不产生接触事件
				continue
			}
			if a.Pos.Sub(b.Pos).Len() > a.Radius+b.Radius+contactSlop {
				continue
			}
			key := pairKey(a.ID, b.ID)
			current[key] = true
			if !w.touching[key] {
				started = append(started, Contact{A: a, B: b})
			}
		}
	}

	w.touching = current
	return started
}

// 接触判定允许的间隙
const contactSlop = 0.5

// pairKey 无序ID对的规范键
func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// clamp 区间截断
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
