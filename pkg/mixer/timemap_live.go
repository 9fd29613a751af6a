package mixer

// t2s converts a client timestamp to a sample offset relative to the start
// of the current buffer, by linear interpolation between the two anchors
// straddling it. Values are clamped to the newest or oldest anchor when the
// timestamp falls outside the anchor ring's span.
func (tm *liveTimeMap) t2s(time Timestamp) int {
	dt := int(TimeDiff(time, tm.timeref)) + mixDT*2

	var s0, s1 int
	if dt < mixDT {
		if dt <= 0 {
			return tm.timesamp[2]
		}
		s0 = tm.timesamp[1]
		s1 = tm.timesamp[2]
	} else {
		dt -= mixDT
		if dt >= mixDT {
			return tm.timesamp[0]
		}
		s0 = tm.timesamp[0]
		s1 = tm.timesamp[1]
	}
	return (s0*dt + s1*(mixDT-dt)) >> mixDTBits
}

// update advances the live time map by one buffer. curTime is the mixdown's
// most recently committed timestamp; wallTime is the end-of-buffer
// timestamp passed to Process (the audio device's wall clock). Every three
// anchors decrement by one buffer's worth of samples; roughly every MIXDT ms
// the regression is solved and the anchor ring shifts.
func (tm *liveTimeMap) update(curTime, wallTime Timestamp) {
	if tm.tmN <= 0 {
		if tm.tmN < 0 {
			tm.timeref = curTime + mixDT
			dsi := int(float64(mixDT) * 0.001 * float64(tm.samplerate))
			for i := 0; i < numTimeSamp; i++ {
				tm.timesamp[i] = dsi*(1-i) + tm.bufsize*2 + tm.mixahead
			}

			dt := 1000.0 / float64(tm.samplerate)
			tm.taAvgDt = dt
			tm.taAvgDt0 = dt
			tm.taTPrev = curTime - Timestamp(int(float64(tm.bufsize)*dt))
			tc := (tm.samplerate + tm.bufsize/2) / tm.bufsize
			if tc < 1 {
				tc = 1
			}
			tm.taTC = tc
			tm.taTN = tc
		}

		tm.tmX, tm.tmY, tm.tmXX, tm.tmXY = 0, 0, 0, 0
		tm.tmN = 0
	}

	tm.taTN--
	if tm.taTN == 0 {
		tm.taTN = tm.taTC
		rawDt := float64(TimeDiff(wallTime, tm.taTPrev)) / float64(tm.taTC*tm.bufsize)
		tm.taTPrev = wallTime
		const alpha = 0.125
		tm.taAvgDt0 = alpha*rawDt + (1-alpha)*tm.taAvgDt0
		tm.taAvgDt = alpha*tm.taAvgDt0 + (1-alpha)*tm.taAvgDt
	}

	tm.tmN++
	ni := tm.tmN
	dti := TimeDiff(curTime, tm.timeref)
	dsi := ni * tm.bufsize

	dtF := float64(dti)
	dsF := float64(dsi)
	tm.tmX += dsF
	tm.tmY += dtF
	tm.tmXX += dsF * dsF
	tm.tmXY += dsF * dtF

	for i := range tm.timesamp {
		tm.timesamp[i] -= tm.bufsize
	}

	if dti < 0 {
		return
	}

	halfWindowSamples := int(2 * float64(mixDT) / tm.taAvgDt)

	var ns int
	if ni > 2 {
		n := float64(ni)
		m := (n*tm.tmXY - tm.tmX*tm.tmY) / (n*tm.tmXX - tm.tmX*tm.tmX)
		b := (tm.tmY - m*tm.tmX) / n
		var nsF float64
		if m*float64(tm.samplerate) < 500.0 {
			nsF = float64(ni * tm.bufsize)
		} else {
			s := -b / m
			if s > 0 {
				nsF = s
			} else {
				nsF = 0
			}
		}
		nsF += float64(halfWindowSamples) / 2
		ns = int(nsF)
	} else {
		ns = halfWindowSamples
	}

	for i := numTimeSamp - 1; i > 0; i-- {
		tm.timesamp[i] = tm.timesamp[i-1]
	}
	tm.timesamp[0] = ns - (ni-1)*tm.bufsize + tm.mixahead

	tm.tmN = 0
	tm.timeref += mixDT
}
