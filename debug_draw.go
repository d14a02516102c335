package server

import "taskbots/server/internal/taskbot"

// debugLinesFromPlan expands a plan's geometry into colored segments
// for the viewer overlay. Closed geometry gets a closing segment.
func debugLinesFromPlan(plan taskbot.Plan) []DebugLine {
	points := plan.Geometry
	if len(points) < 2 {
		return nil
	}
	segments := len(points) - 1
	if plan.Cycle {
		segments++
	}
	lines := make([]DebugLine, 0, segments)
	for i := 1; i < len(points); i++ {
		lines = append(lines, DebugLine{
			X1:    points[i-1].X(),
			Y1:    points[i-1].Y(),
			X2:    points[i].X(),
			Y2:    points[i].Y(),
			Color: plan.Color,
		})
	}
	if plan.Cycle {
		last := points[len(points)-1]
		first := points[0]
		lines = append(lines, DebugLine{
			X1:    last.X(),
			Y1:    last.Y(),
			X2:    first.X(),
			Y2:    first.Y(),
			Color: plan.Color,
		})
	}
	return lines
}
