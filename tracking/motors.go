package tracking

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/notch-review/algorithms/atmosphere"
	"github.com/RyanBlaney/notch-review/algorithms/common"
	"github.com/RyanBlaney/notch-review/telemetry"
)

var (
	// ErrNoParams is returned when the log carries no parameter values
	ErrNoParams = errors.New("log has no parameters")

	// ErrFrame is returned when the motor layout cannot be worked out
	ErrFrame = errors.New("unsupported motor layout")
)

const (
	numServoOutputs = 32

	motor1Function  = 33
	motor8Function  = 40
	motor9Function  = 82
	motor12Function = 85

	throttleLeftFunction  = 73
	throttleRightFunction = 74
)

func isMotorFunction(f int) bool {
	return (f >= motor1Function && f <= motor8Function) ||
		(f >= motor9Function && f <= motor12Function)
}

// motorFunction returns the output function of zero based motor channel
func motorFunction(channel int) int {
	if channel < 8 {
		return motor1Function + channel
	}
	return motor9Function + channel - 8
}

const (
	frameTri        = 7
	frameSingle     = 8
	frameCoax       = 9
	frameTailsitter = 10
)

// frameClasses lists the motor count of each multicopter frame class; a
// count of -1 accepts however many motor outputs are assigned.
var frameClasses = []struct {
	name   string
	value  int
	motors int
}{
	{"QUAD", 1, 4},
	{"HEXA", 2, 6},
	{"OCTA", 3, 8},
	{"OCTAQUAD", 4, 8},
	{"Y6", 5, 6},
	{"TRI", frameTri, 4},
	{"SINGLE", frameSingle, 6},
	{"COAX", frameCoax, 6},
	{"DODECAHEXA", 12, 12},
	{"DECA", 14, 10},
	{"SCRIPTING_MATRIX", 15, -1},
	{"6DOF_SCRIPTING", 16, -1},
	{"DYNAMIC_SCRIPTING_MATRIX", 17, -1},
}

// servoFunctions reads SERVOn_FUNCTION for every output; unset outputs are -1
func servoFunctions(params telemetry.ParamSource) []int {
	functions := make([]int, numServoOutputs)
	for i := range functions {
		functions[i] = -1
		if v, ok := params.Param(fmt.Sprintf("SERVO%d_FUNCTION", i+1)); ok {
			functions[i] = int(v)
		}
	}
	return functions
}

// MotorOutputs returns the output functions that drive lifting motors
func MotorOutputs(params telemetry.ParamSource) ([]int, error) {
	functions := servoFunctions(params)
	count := 0
	for _, f := range functions {
		if isMotorFunction(f) {
			count++
		}
	}

	v, ok := params.Param("FRAME_CLASS")
	if !ok {
		v, ok = params.Param("Q_FRAME_CLASS")
	}
	if !ok {
		return nil, fmt.Errorf("%w: no frame class", ErrFrame)
	}
	class := int(v)

	var motors []int
	for _, fc := range frameClasses {
		if fc.value != class {
			continue
		}
		want := fc.motors
		if want < 0 {
			want = count
		}
		if count != want {
			return nil, fmt.Errorf("%w: %s expects %d motors, found %d", ErrFrame, fc.name, want, count)
		}
		for i := range want {
			motors = append(motors, motorFunction(i))
		}
		break
	}

	// not every output of these frames is a lifting motor
	switch class {
	case frameTri:
		motors = []int{motorFunction(0), motorFunction(1), motorFunction(3)}
	case frameSingle, frameCoax:
		motors = []int{motorFunction(5), motorFunction(6)}
	case frameTailsitter:
		motors = []int{throttleLeftFunction, throttleRightFunction}
	}

	if len(motors) == 0 {
		return nil, fmt.Errorf("%w: frame class %d", ErrFrame, class)
	}
	for _, m := range motors {
		if !slices.Contains(functions, m) {
			return nil, fmt.Errorf("%w: no output assigned to function %d", ErrFrame, m)
		}
	}
	return motors, nil
}

// MotorParams are the motor mixer settings needed to turn PWM back into thrust
type MotorParams struct {
	ThrustExpo  float64
	SpinMax     float64
	SpinMin     float64
	PWMMin      float64
	PWMMax      float64
	BattVoltMin float64
	BattVoltMax float64
	BattIndex   int
	Options     int
}

var motorParamPrefixes = []string{"MOT_", "Q_M_"}

// LoadMotorParams reads the MOT_ or Q_M_ mixer parameters. Every parameter
// except OPTIONS must be present. The thrust expo is limited to +-1.
func LoadMotorParams(params telemetry.ParamSource) (MotorParams, error) {
	read := func(name string) (float64, bool) {
		var (
			value float64
			found bool
		)
		for _, prefix := range motorParamPrefixes {
			if v, ok := params.Param(prefix + name); ok {
				value, found = v, true
			}
		}
		return value, found
	}

	values := make(map[string]float64)
	for _, name := range []string{"THST_EXPO", "SPIN_MAX", "SPIN_MIN", "PWM_MIN", "PWM_MAX", "BAT_VOLT_MIN", "BAT_VOLT_MAX", "BAT_IDX"} {
		v, ok := read(name)
		if !ok {
			return MotorParams{}, fmt.Errorf("missing motor param %s: %w", name, telemetry.ErrNoField)
		}
		values[name] = v
	}
	options, _ := read("OPTIONS")

	return MotorParams{
		ThrustExpo:  common.Clamp(values["THST_EXPO"], -1, 1),
		SpinMax:     values["SPIN_MAX"],
		SpinMin:     values["SPIN_MIN"],
		PWMMin:      values["PWM_MIN"],
		PWMMax:      values["PWM_MAX"],
		BattVoltMin: values["BAT_VOLT_MIN"],
		BattVoltMax: values["BAT_VOLT_MAX"],
		BattIndex:   int(values["BAT_IDX"]),
		Options:     int(options),
	}, nil
}

// BatteryCompensated reports whether the mixer scales output with voltage
func (m MotorParams) BatteryCompensated() bool {
	return m.BattVoltMax > 0 && m.BattVoltMin < m.BattVoltMax
}

// UseRawVoltage reports whether compensation uses unfiltered voltage
func (m MotorParams) UseRawVoltage() bool {
	return m.Options&1 != 0
}

// Battery returns the normalized battery voltage and the resulting maximum
// lift for one voltage sample. Implausibly low readings disable
// compensation for that sample.
func (m MotorParams) Battery(voltage float64) (normalized, liftMax float64) {
	if voltage < 0.25*m.BattVoltMin {
		return 1, 1
	}
	normalized = common.Clamp(voltage, m.BattVoltMin, m.BattVoltMax) / m.BattVoltMax
	liftMax = normalized*(1-m.ThrustExpo) + m.ThrustExpo*normalized*normalized
	return normalized, liftMax
}

// Throttle converts a PWM output to the mixer's 0..1 throttle
func (m MotorParams) Throttle(pwm float64) float64 {
	throttle := (pwm - m.PWMMin) / (m.PWMMax - m.PWMMin)
	throttle = (throttle - m.SpinMin) / (m.SpinMax - m.SpinMin)
	return common.Clamp(throttle, 0, 1)
}

// Thrust inverts the mixer output stage: the thrust curve, voltage scaling
// and air density compensation.
func (m MotorParams) Thrust(throttle, battVoltage, liftMax, densityCorrection float64) float64 {
	batteryScale := 1.0
	if battVoltage > 0 {
		batteryScale = 1 / battVoltage
	}

	var thrust float64
	expo := m.ThrustExpo
	if expo == 0 {
		thrust = throttle / (liftMax * batteryScale)
	} else {
		thrust = (throttle/batteryScale)*(2*expo) - (expo - 1)
		thrust = thrust*thrust - (1-expo)*(1-expo)
		thrust /= 4 * expo * liftMax
		thrust = common.Clamp(thrust, 0, 1)
	}

	gain := 1.0
	if liftMax > 0 {
		gain = densityCorrection / liftMax
	}
	return thrust / gain
}

// DensityCorrection returns the thrust compensation applied for air density
// at altitude; it is 1 outside the plausible range.
func DensityCorrection(alt float64) float64 {
	scale := atmosphere.EAS2TASScale(alt)
	ratio := 1 / (scale * scale)
	if ratio > 0.3 && ratio < 1.5 {
		return 1 / common.Clamp(ratio, 0.5, 1.25)
	}
	return 1
}

// outputMessage names the message logging output channel (zero based)
func outputMessage(channel int) string {
	switch {
	case channel < 14:
		return "RCOU"
	case channel < 18:
		return "RCO2"
	default:
		return "RCO3"
	}
}

// MotorThrust rebuilds the thrust of every lifting motor from its logged
// PWM output, the battery voltage and the barometric altitude.
func MotorThrust(log telemetry.Log, params telemetry.ParamSource) ([]Series, error) {
	motors, err := MotorOutputs(params)
	if err != nil {
		return nil, err
	}
	mot, err := LoadMotorParams(params)
	if err != nil {
		return nil, err
	}

	var batt, lift Series
	compensated := mot.BatteryCompensated()
	if compensated {
		batt, lift, err = batteryCorrection(log, mot)
		if err != nil {
			return nil, err
		}
	}

	density, err := densityCorrection(log, params)
	if err != nil {
		return nil, err
	}

	functions := servoFunctions(params)
	out := make([]Series, 0, len(motors))
	for _, motor := range motors {
		channel := slices.Index(functions, motor)
		msg := outputMessage(channel)

		pwm, err := readSeries(log, msg, fmt.Sprintf("C%d", channel+1))
		if err != nil {
			return nil, fmt.Errorf("motor output %d: %w", channel+1, err)
		}

		densityAt, err := common.LinearInterp(density.Value, density.Time, pwm.Time)
		if err != nil {
			return nil, err
		}
		battAt, liftAt := onesLike(pwm.Time), onesLike(pwm.Time)
		if compensated {
			if battAt, err = common.LinearInterp(batt.Value, batt.Time, pwm.Time); err != nil {
				return nil, err
			}
			if liftAt, err = common.LinearInterp(lift.Value, lift.Time, pwm.Time); err != nil {
				return nil, err
			}
		}

		thrust := make([]float64, pwm.Len())
		for i, p := range pwm.Value {
			thrust[i] = mot.Thrust(mot.Throttle(p), battAt[i], liftAt[i], densityAt[i])
		}
		out = append(out, Series{Time: pwm.Time, Value: thrust})
	}
	return out, nil
}

func batteryCorrection(log telemetry.Log, mot MotorParams) (batt, lift Series, err error) {
	msg, ok := telemetry.Lookup(log, "BAT")
	if !ok || !msg.HasInstance(mot.BattIndex) {
		return Series{}, Series{}, fmt.Errorf("battery %d: %w", mot.BattIndex, telemetry.ErrNoInstance)
	}

	field := "VoltR"
	if mot.UseRawVoltage() {
		field = "Volt"
	}
	voltage, err := readInstanceSeries(log, "BAT", mot.BattIndex, field)
	if err != nil {
		return Series{}, Series{}, err
	}

	batt = Series{Time: voltage.Time, Value: make([]float64, voltage.Len())}
	lift = Series{Time: voltage.Time, Value: make([]float64, voltage.Len())}
	for i, v := range voltage.Value {
		batt.Value[i], lift.Value[i] = mot.Battery(v)
	}
	return batt, lift, nil
}

func densityCorrection(log telemetry.Log, params telemetry.ParamSource) (Series, error) {
	primary, ok := params.Param("BARO_PRIMARY")
	if !ok {
		return Series{}, fmt.Errorf("BARO_PRIMARY: %w", telemetry.ErrNoField)
	}
	inst := int(primary)
	msg, ok := telemetry.Lookup(log, "BARO")
	if !ok || !msg.HasInstance(inst) {
		return Series{}, fmt.Errorf("barometer %d: %w", inst, telemetry.ErrNoInstance)
	}

	alt, err := readInstanceSeries(log, "BARO", inst, "Alt")
	if err != nil {
		return Series{}, err
	}
	return mapSeries(alt, DensityCorrection), nil
}

func onesLike(s []float64) []float64 {
	out := make([]float64, len(s))
	for i := range out {
		out[i] = 1
	}
	return out
}

// throttleNorm is the normalized motor speed implied by a throttle level
func throttleNorm(throttle, ref float64) float64 {
	return math.Sqrt(math.Max(0, throttle) / ref)
}
