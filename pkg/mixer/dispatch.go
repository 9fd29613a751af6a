package mixer

// paramfill fills a channel's parameter envelope buffer up to the given
// audio sample position, then rebases the channel's current segment to
// that position — every later call only has to fill in what's new. sample
// is relative to the start of the current buffer. Translated from the
// original mixdown's paramfill, substituting the message-driven waypoint
// model (see message.go) for the PSET/PLINEAR/PSLOPE message types.
func (md *Mixdown) paramfill(channel int, p Param, sample int) {
	lc := &md.channels[channel]
	pp := &lc.params[p]
	if sample <= pp.pos0 {
		return
	}

	bufsz := md.bufSize
	pbuf := md.bufParam[channel][p]

	if sample > bufsz {
		sample = bufsz
	}

	ca := sampleToParamTick(pp.pos0)
	cb := sampleToParamTick(pp.pos1)
	cc := sampleToParamTick(sample)
	if cc < cb {
		cb = cc
	}

	y0, y1 := pp.val0, pp.val1
	var dy float32
	if pp.pos1 > pp.pos0 {
		dy = (y1 - y0) / float32(pp.pos1-pp.pos0)
		y := y0 + float32(ca*ParamRate-pp.pos0)*dy
		for ci := ca; ci < cb; ci++ {
			pbuf[ci] = y + float32(ci-ca)*float32(ParamRate)*dy
		}
	}
	for ci := cb; ci < cc; ci++ {
		pbuf[ci] = y1
	}

	if sample < pp.pos1 {
		y := y0 + float32(sample-pp.pos0)*dy
		pp.pos0 = sample
		pp.val0 = y
	} else {
		pp.pos0 = sample
		pp.pos1 = sample
		pp.val0 = y1
		pp.val1 = y1
	}
}

// sampleToParamTick rounds an audio sample position up to the next
// parameter-rate tick boundary.
func sampleToParamTick(sample int) int {
	return (sample + ParamRate - 1) >> paramRateBits
}

// dispatch processes every lifecycle event and parameter message whose
// timestamp maps to a sample position within the current buffer, leaving
// anything later queued for the next buffer.
func (md *Mixdown) dispatch() {
	events := md.lifeProcess
	keep := events[:0]
	for _, ev := range events {
		sample := md.timeToSample(ev.time)
		if sample >= md.bufSize {
			keep = append(keep, ev)
			continue
		}
		switch ev.kind {
		case lifecyclePlay:
			md.handlePlay(ev, sample)
		case lifecycleStop:
			md.handleStop(ev.channel, sample)
		}
	}
	md.lifeProcess = keep

	md.process.compact(func(m message) bool {
		sample := md.timeToSample(m.time)
		if sample >= md.bufSize {
			return true
		}
		md.handleParam(m.addr.channel(), m.addr.param(), sample, m.val)
		return false
	})
}

func (md *Mixdown) handlePlay(ev lifecycleEvent, sample int) {
	lc := &md.channels[ev.channel]
	if lc.flags&lOccupied != 0 {
		// A handle should never be reused before the previous occupant is
		// freed, but guard against it rather than leak the old sound.
		md.finishLocally(ev.channel)
	}

	lc.flags = lOccupied
	lc.sound = ev.sound
	lc.pos = sample
	lc.loop = ev.loop
	for p := 0; p < int(ParamCount); p++ {
		lc.params[p] = paramSeg{val0: ev.initial[p], val1: ev.initial[p]}
	}
}

// stopFadeSeconds is the duration of the linear fade-to-silence a STOP
// triggers, capped so a channel already near silence fades out faster.
const stopFadeSeconds float32 = 0.005

const fadeRate = -SilenceDB / stopFadeSeconds

func (md *Mixdown) handleStop(channel, sample int) {
	lc := &md.channels[channel]
	if lc.flags&lOccupied == 0 || lc.flags&lStop != 0 {
		return
	}

	md.paramfill(channel, ParamVolume, sample)
	pp := &lc.params[ParamVolume]
	vol := pp.val0
	t := (vol - SilenceDB) / fadeRate
	if t < 0 {
		t = 0
	} else if t > stopFadeSeconds {
		t = stopFadeSeconds
	}
	fadeSamples := int(t * float32(md.sampleRate))
	pp.pos1 = pp.pos0 + fadeSamples
	pp.val1 = SilenceDB
	lc.flags |= lStop
}

func (md *Mixdown) handleParam(channel int, p Param, sample int, val float32) {
	lc := &md.channels[channel]
	if lc.flags&lOccupied == 0 {
		return
	}
	md.paramfill(channel, p, sample)
	pp := &lc.params[p]
	pp.pos1 = sample
	pp.val1 = val
}

// finishLocally releases a channel's sound reference and marks it free in
// this mixdown, queuing it to have its DONE bit published on the next
// drainInbox call.
func (md *Mixdown) finishLocally(channel int) {
	lc := &md.channels[channel]
	if lc.sound != nil {
		lc.sound.Release()
	}
	*lc = localChannel{}
	md.justDone = append(md.justDone, channel)
}
