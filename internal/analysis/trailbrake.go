package analysis

// trailBrakingInfo summarises the overlap between braking and steering inside
// one braking zone.
type trailBrakingInfo struct {
	detected     bool
	distance     float64 // lap-distance extent of the overlap
	meanPressure float64 // mean brake input over the overlap frames
}

// detectTrailBraking scans frames[startIdx..endIdx] for the sub-interval
// where the driver keeps braking while steering past the threshold. The
// distance is accumulated from per-frame lap-distance deltas so gaps in the
// overlap are not counted.
func detectTrailBraking(frames []TelemetryFrame, startIdx, endIdx int, cfg AnalysisConfig) trailBrakingInfo {
	if len(frames) == 0 || startIdx >= len(frames) {
		return trailBrakingInfo{}
	}
	if endIdx > len(frames)-1 {
		endIdx = len(frames) - 1
	}
	if startIdx > endIdx {
		return trailBrakingInfo{}
	}

	var (
		distance    float64
		pressureSum float64
		overlap     int
	)
	for i := startIdx; i <= endIdx; i++ {
		f := frames[i]
		if !f.IsBraking(cfg.BrakeThreshold) || !f.IsSteering(cfg.SteeringThreshold) {
			continue
		}
		overlap++
		pressureSum += f.Brake
		if i+1 < len(frames) {
			if delta := frames[i+1].LapDistance - f.LapDistance; delta > 0 {
				distance += delta
			}
		}
	}
	if overlap == 0 {
		return trailBrakingInfo{}
	}
	return trailBrakingInfo{
		detected:     true,
		distance:     distance,
		meanPressure: pressureSum / float64(overlap),
	}
}
