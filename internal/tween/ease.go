package tween

import "math"

// Ease indexes an easing curve. The numbering matches the ease indices the
// scenario scripts pass (Unset, Linear, then In/Out/InOut per family).
type Ease int

const (
	Unset Ease = iota
	Linear
	InSine
	OutSine
	InOutSine
	InQuad
	OutQuad
	InOutQuad
	InCubic
	OutCubic
	InOutCubic
	InQuart
	OutQuart
	InOutQuart
	InQuint
	OutQuint
	InOutQuint
	InExpo
	OutExpo
	InOutExpo
	InCirc
	OutCirc
	InOutCirc
	InElastic
	OutElastic
	InOutElastic
	InBack
	OutBack
	InOutBack
	InBounce
	OutBounce
	InOutBounce
	easeCount
)

// Default is applied for Unset.
const Default = OutQuad

const (
	backS     = 1.70158
	backS2    = backS * 1.525
	elasticC  = (2 * math.Pi) / 3
	elasticC2 = (2 * math.Pi) / 4.5
	bounceN   = 7.5625
	bounceD   = 2.75
)

// Valid reports whether e names a known curve.
func (e Ease) Valid() bool { return e >= Unset && e < easeCount }

// Apply maps linear progress p in [0,1] through the curve. Unknown values
// fall back to Default.
func (e Ease) Apply(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	switch e {
	case Linear:
		return p
	case InSine:
		return 1 - math.Cos(p*math.Pi/2)
	case OutSine:
		return math.Sin(p * math.Pi / 2)
	case InOutSine:
		return -(math.Cos(math.Pi*p) - 1) / 2
	case InQuad:
		return p * p
	case OutQuad:
		return 1 - (1-p)*(1-p)
	case InOutQuad:
		if p < 0.5 {
			return 2 * p * p
		}
		return 1 - math.Pow(-2*p+2, 2)/2
	case InCubic:
		return p * p * p
	case OutCubic:
		return 1 - math.Pow(1-p, 3)
	case InOutCubic:
		if p < 0.5 {
			return 4 * p * p * p
		}
		return 1 - math.Pow(-2*p+2, 3)/2
	case InQuart:
		return math.Pow(p, 4)
	case OutQuart:
		return 1 - math.Pow(1-p, 4)
	case InOutQuart:
		if p < 0.5 {
			return 8 * math.Pow(p, 4)
		}
		return 1 - math.Pow(-2*p+2, 4)/2
	case InQuint:
		return math.Pow(p, 5)
	case OutQuint:
		return 1 - math.Pow(1-p, 5)
	case InOutQuint:
		if p < 0.5 {
			return 16 * math.Pow(p, 5)
		}
		return 1 - math.Pow(-2*p+2, 5)/2
	case InExpo:
		return math.Pow(2, 10*p-10)
	case OutExpo:
		return 1 - math.Pow(2, -10*p)
	case InOutExpo:
		if p < 0.5 {
			return math.Pow(2, 20*p-10) / 2
		}
		return (2 - math.Pow(2, -20*p+10)) / 2
	case InCirc:
		return 1 - math.Sqrt(1-p*p)
	case OutCirc:
		return math.Sqrt(1 - (p-1)*(p-1))
	case InOutCirc:
		if p < 0.5 {
			return (1 - math.Sqrt(1-math.Pow(2*p, 2))) / 2
		}
		return (math.Sqrt(1-math.Pow(-2*p+2, 2)) + 1) / 2
	case InElastic:
		return -math.Pow(2, 10*p-10) * math.Sin((p*10-10.75)*elasticC)
	case OutElastic:
		return math.Pow(2, -10*p)*math.Sin((p*10-0.75)*elasticC) + 1
	case InOutElastic:
		if p < 0.5 {
			return -(math.Pow(2, 20*p-10) * math.Sin((20*p-11.125)*elasticC2)) / 2
		}
		return (math.Pow(2, -20*p+10)*math.Sin((20*p-11.125)*elasticC2))/2 + 1
	case InBack:
		return (backS+1)*p*p*p - backS*p*p
	case OutBack:
		q := p - 1
		return 1 + (backS+1)*q*q*q + backS*q*q
	case InOutBack:
		if p < 0.5 {
			return (math.Pow(2*p, 2) * ((backS2+1)*2*p - backS2)) / 2
		}
		return (math.Pow(2*p-2, 2)*((backS2+1)*(p*2-2)+backS2) + 2) / 2
	case InBounce:
		return 1 - bounceOut(1-p)
	case OutBounce:
		return bounceOut(p)
	case InOutBounce:
		if p < 0.5 {
			return (1 - bounceOut(1-2*p)) / 2
		}
		return (1 + bounceOut(2*p-1)) / 2
	}
	return Default.Apply(p)
}

func bounceOut(p float64) float64 {
	switch {
	case p < 1/bounceD:
		return bounceN * p * p
	case p < 2/bounceD:
		p -= 1.5 / bounceD
		return bounceN*p*p + 0.75
	case p < 2.5/bounceD:
		p -= 2.25 / bounceD
		return bounceN*p*p + 0.9375
	default:
		p -= 2.625 / bounceD
		return bounceN*p*p + 0.984375
	}
}
