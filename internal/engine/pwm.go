package engine

import (
	"strconv"

	"github.com/nabbar/gcproxy/internal/codec"
)

// pwmToAxis implements affine map: given min/max PWM
// read from parameters, if either is 0 return 0; otherwise scale
// linearly into [minOut,maxOut] and clamp.
func pwmToAxis(pwm, minPWM, maxPWM, minOut, maxOut float64) float64 {
	if minPWM == 0 || maxPWM == 0 {
		return 0
	}
	p := (pwm - minPWM) / (maxPWM - minPWM)
	v := minOut + p*(maxOut-minOut)
	if v < minOut {
		return minOut
	}
	if v > maxOut {
		return maxOut
	}
	return v
}

func (e *Engine) rcLimits(ch int) (min, max float64) {
	minV, _ := e.params.Get("RC" + strconv.Itoa(ch) + "_MIN")
	maxV, _ := e.params.Get("RC" + strconv.Itoa(ch) + "_MAX")
	return float64(minV), float64(maxV)
}

// controlMirror is the engine's mirror of the vehicle's current
// control-axis positions, recomputed on every SERVO_OUTPUT_RAW.
type controlMirror struct {
	Aileron, Elevator, Rudder, Throttle float64
	QuadThrottle                        [4]float64
}

// recomputeControlMirror implements the SERVO_OUTPUT_RAW
// handler: scale each servo PWM through an affine map using
// per-channel RC<i>_MIN/MAX.
func (e *Engine) recomputeControlMirror(m *codec.ServoOutputRaw) {
	min1, max1 := e.rcLimits(1)
	min2, max2 := e.rcLimits(2)
	min3, max3 := e.rcLimits(3)
	min4, max4 := e.rcLimits(4)

	cm := controlMirror{
		Aileron:  pwmToAxis(float64(m.Servo[0]), min1, max1, -1, 1),
		Elevator: pwmToAxis(float64(m.Servo[1]), min2, max2, -1, 1),
		Throttle: pwmToAxis(float64(m.Servo[2]), min3, max3, 0, 1),
		Rudder:   pwmToAxis(float64(m.Servo[3]), min4, max4, -1, 1),
	}
	for i := 0; i < 4; i++ {
		cm.QuadThrottle[i] = pwmToAxis(float64(m.Servo[i]), min3, max3, 0, 1)
	}

	e.mu.Lock()
	e.control = cm
	e.mu.Unlock()
}

// auditRCLimits implements the radiosetup RC_CHANNELS_RAW
// audit: widen RC<i>_MIN/MAX to bracket the live value, via the
// async parameter-set protocol.
func (e *Engine) auditRCLimits(m *codec.RcChannelsRaw) {
	for i := 0; i < 8; i++ {
		name := "RC" + strconv.Itoa(i+1)
		live := float64(m.Chan[i])

		minV, _ := e.params.Get(name + "_MIN")
		if live < float64(minV) {
			e.paramSetAsync(name+"_MIN", float32(live))
		}
		maxV, _ := e.params.Get(name + "_MAX")
		if live > float64(maxV) {
			e.paramSetAsync(name+"_MAX", float32(live))
		}
	}
}
