package core

// rawToMillivolts converts one raw ADC code to millivolts on the fixed
// 10000/256 front-end scale.
func rawToMillivolts(code int8) int16 {
	return int16(int32(code) * 10000 / 256)
}

// copyWindow extracts the display window aligned so that trig lands at the
// configured position offset, converting raw codes to millivolts. It
// reports whether the requested window fits inside the raw buffer; on a
// misfit the display buffer is left untouched so the caller can fall back
// to the untriggered window. Calling it with trig equal to the position
// offset itself yields that fallback window and always fits.
func (s *Scope) copyWindow(trig int) bool {
	start := trig - s.cfg.Position
	if start < 0 || start+DisplaySize > RawWindowSize {
		return false
	}
	for i := 0; i < DisplaySize; i++ {
		s.display[i] = rawToMillivolts(s.raw[start+i])
	}
	return true
}
