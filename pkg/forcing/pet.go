package forcing

import (
	"math"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// PET computation constants.
const (
	cp           = 1005.0  // specific heat of moist air [J kg-1 K-1]
	betaDeBruin  = 20.0    // correction term [W m-2]
	csDeBruin    = 110.0   // empirical constant [W m-2]
	lambdaVapor  = 2.45e6  // latent heat of vaporization [J kg-1]
	grassFactor  = 0.8982  // reference grass over open water evaporation
	albedoCanopy = 0.23    // canopy reflection coefficient
)

// Method selects the reference evapotranspiration formula.
type Method string

const (
	MethodDeBruin Method = "debruin"
	MethodMakkink Method = "makkink"
)

// ParseMethod validates a PET method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodDeBruin, MethodMakkink:
		return Method(s), nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedMethod,
		"unknown evapotranspiration method %q: options are debruin, makkink", s)
}

// satVaporPressure is the saturation vapor pressure [hPa] at temperature
// temp [°C], after Tetens.
func satVaporPressure(temp float64) float64 {
	return 6.112 * math.Exp(17.67*temp/(temp+243.5))
}

// vaporSlope is the slope of the saturation vapor pressure curve
// [hPa K-1] at temperature temp [°C].
func vaporSlope(temp float64) float64 {
	esat := satVaporPressure(temp)
	return esat * (17.269 / (temp + 243.5)) * (1 - temp/(temp+243.5))
}

// psychrometric is the psychrometric constant [hPa K-1] at air pressure
// press [hPa].
func psychrometric(press float64) float64 {
	return (cp * press) / (0.622 * lambdaVapor)
}

// DeBruin computes reference open-water evapotranspiration [mm] over one
// timestep [s] after De Bruin (1987), from air temperature [°C], mean
// sea-level pressure [hPa], and incoming and outgoing shortwave radiation
// [W m-2]. Nighttime steps (kout zero) evaporate nothing.
func DeBruin(temp, press, kin, kout float64, timestep int) float64 {
	if kout == 0 {
		return 0
	}
	slope := vaporSlope(temp)
	gamma := psychrometric(press)

	epJoule := slope/(slope+gamma)*((1-albedoCanopy)*kin-csDeBruin*kin/(kout+0.5)) + betaDeBruin
	pet := epJoule / lambdaVapor * float64(timestep)
	return math.Max(pet, 0)
}

// Makkink computes reference evapotranspiration [mm] over one timestep [s]
// after Makkink (1957), from air temperature [°C], mean sea-level pressure
// [hPa] and incoming shortwave radiation [W m-2].
func Makkink(temp, press, kin float64, timestep int) float64 {
	slope := vaporSlope(temp)
	gamma := psychrometric(press)
	return 0.65 * slope / (slope + gamma) * kin / lambdaVapor * float64(timestep)
}

// PotOpenWater applies the selected method across parallel meteorological
// series, returning potential open-water evapotranspiration per sample.
func PotOpenWater(m Meteo, method Method, timestep int) (Series, error) {
	if len(m.Temp) != len(m.Times) || len(m.PressMSL) != len(m.Times) || len(m.Kin) != len(m.Times) {
		return Series{}, errors.New(errors.ErrCodeInvalidForcing, "meteo series lengths diverge")
	}
	switch method {
	case MethodDeBruin:
		if len(m.Kout) != len(m.Times) {
			return Series{}, errors.New(errors.ErrCodeInvalidForcing,
				"debruin needs outgoing shortwave radiation (kout) for every sample")
		}
	case MethodMakkink:
	default:
		return Series{}, errors.New(errors.ErrCodeUnsupportedMethod,
			"unknown evapotranspiration method %q: options are debruin, makkink", method)
	}

	out := Series{Times: m.Times, Values: make([]float64, len(m.Times))}
	for i := range m.Times {
		switch method {
		case MethodDeBruin:
			out.Values[i] = DeBruin(m.Temp[i], m.PressMSL[i], m.Kin[i], m.Kout[i], timestep)
		case MethodMakkink:
			out.Values[i] = Makkink(m.Temp[i], m.PressMSL[i], m.Kin[i], timestep)
		}
	}
	return out, nil
}
