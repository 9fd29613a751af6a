package mixer

// t2s computes an exact, non-drifting sample offset: no regression, no
// filtering, just linear extrapolation from the single anchor. Computed in
// two parts (whole seconds, then the sub-second remainder) to avoid
// overflow on long-running sessions.
func (tm *offlineTimeMap) t2s(time Timestamp) int {
	dt := int(TimeDiff(time, tm.timeref))
	sec := dt / 1000
	frac := dt % 1000
	return tm.timesamp0 + sec*tm.samplerate + (frac*tm.samplerate)/1000
}

// update advances the offline time map by exactly one buffer's worth of
// samples, wrapping the anchor into the next second when it would otherwise
// go so far negative that intermediate arithmetic risks overflow.
func (tm *offlineTimeMap) update() {
	tm.timesamp0 -= tm.bufsize
	if tm.timesamp0 < -tm.samplerate/2 {
		tm.timesamp0 += tm.samplerate
		tm.timeref += 1000
	}
}
