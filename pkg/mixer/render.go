package mixer

import "math"

// cvolpan turns a channel's per-tick volume (dB) and pan ([-1,1]) envelopes
// in place into left/right linear gain envelopes. Below -60dB the gain
// fades smoothly to zero rather than cutting off, and pan uses an
// equal-power law. Translated directly from the original mixdown's cvolpan.
func cvolpan(volBuf, panBuf []float32) {
	for i := range volBuf {
		vol := volBuf[i]
		pan := panBuf[i]

		var g float32
		switch {
		case vol >= 0:
			g = 1
		case vol > SilenceDB:
			g = float32(math.Exp(float64(vol) * (math.Log(10) / 20)))
			if vol < -60 {
				g *= (vol + 80) / 20
			}
		default:
			g = 0
		}

		var g0, g1 float32
		switch {
		case pan <= -1:
			g0, g1 = g, 0
		case pan >= 1:
			g0, g1 = 0, g
		default:
			g0 = g * float32(math.Sin(float64(1-pan)*math.Pi/4))
			g1 = g * float32(math.Sin(float64(1+pan)*math.Pi/4))
		}

		volBuf[i] = g0
		panBuf[i] = g1
	}
}

// render fills every active channel's parameter envelopes for the rest of
// this buffer, converts them to gain, fetches and mixes each channel's
// samples into the stereo bus, and retires any channel whose stop fade has
// reached silence or that reached the end of its sound (looping instead, if
// requested). Translated from the original mixdown's render.
func (md *Mixdown) render() {
	bufsz := md.bufSize

	for i := range md.busL {
		md.busL[i] = 0
		md.busR[i] = 0
	}

	for ch := 0; ch < ChannelCapacity; ch++ {
		lc := &md.channels[ch]
		if lc.flags&lOccupied == 0 {
			continue
		}

		volBuf := md.bufParam[ch][ParamVolume]
		panBuf := md.bufParam[ch][ParamPan]

		md.paramfill(ch, ParamVolume, bufsz)
		md.paramfill(ch, ParamPan, bufsz)
		// A stopped channel whose fade reaches SilenceDB within this buffer
		// is retired once the buffer is mixed.
		vp := lc.params[ParamVolume]
		faded := lc.flags&lStop != 0 && vp.pos1 <= bufsz && vp.val1 <= SilenceDB
		lc.params[ParamVolume].pos0 -= bufsz
		lc.params[ParamVolume].pos1 -= bufsz
		lc.params[ParamPan].pos0 -= bufsz
		lc.params[ParamPan].pos1 -= bufsz

		cvolpan(volBuf, panBuf)

		md.fetchSamples(lc, bufsz)

		for i := 0; i < bufsz; i++ {
			pi := i >> paramRateBits
			md.busL[i] += md.bufSampL[i] * volBuf[pi]
			md.busR[i] += md.bufSampR[i] * panBuf[pi]
		}

		if faded {
			md.finishLocally(ch)
			continue
		}

		sound := lc.sound
		pos := lc.pos - bufsz
		if pos < -sound.FrameCount {
			if lc.loop {
				pos += sound.FrameCount
				for pos < -sound.FrameCount {
					pos += sound.FrameCount
				}
				lc.pos = pos
			} else {
				md.finishLocally(ch)
			}
		} else {
			lc.pos = pos
		}
	}
}

// fetchSamples reads one buffer's worth of stereo float samples from lc's
// sound, whose first frame sits at buffer offset lc.pos (negative once the
// sound started in an earlier buffer; positive when it starts partway into
// this one, in which case the samples before it are zero), and zero-fills
// the rest.
func (md *Mixdown) fetchSamples(lc *localChannel, bufsz int) {
	pos := lc.pos
	sound := lc.sound
	end := pos + sound.FrameCount
	if end > bufsz {
		end = bufsz
	}

	i := 0
	for ; i < pos && i < bufsz; i++ {
		md.bufSampL[i] = 0
		md.bufSampR[i] = 0
	}
	for ; i < end; i++ {
		l, r := sound.frame(i - pos)
		md.bufSampL[i] = l
		md.bufSampR[i] = r
	}
	for ; i < bufsz; i++ {
		md.bufSampL[i] = 0
		md.bufSampR[i] = 0
	}
}
